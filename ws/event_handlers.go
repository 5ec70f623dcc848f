package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/judgegodwins/sketch-server/game"
	"github.com/judgegodwins/sketch-server/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// RegisterNickHandler registers the client in its pending room, or renames it
// if it already has a nick.
func RegisterNickHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadNick

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	session := &c.session

	if session.Room == nil {
		return game.ErrNoPendingRoom
	}

	room := session.Room

	if session.Nick != "" {
		previous := session.Nick

		if err := room.RenameMember(previous, payload.Nick); err != nil {
			return err
		}

		session.Nick = payload.Nick

		c.manager.systemMessage(room, fmt.Sprintf("%v is now called: %v", previous, payload.Nick))

		return c.reply(e, EventNick, PayloadNick{Nick: payload.Nick})
	}

	if err := room.RegisterNickname(payload.Nick); err != nil {
		return err
	}

	session.Nick = payload.Nick
	c.manager.registry.Release(room)

	c.Join(util.GroupKey(room.Name()))

	log.Info().Str("room", room.Name()).Str("nick", payload.Nick).Msg("member joined")

	c.manager.systemMessage(room, fmt.Sprintf("%v joined this room.", payload.Nick))

	if err := c.reply(e, EventNick, PayloadNick{Nick: payload.Nick}); err != nil {
		return err
	}

	if room.StartIfIdle() {
		c.manager.announceArtist(room)
	} else if artist, ok := room.Artist(); ok {
		if err := c.PushEventToEgress(EventArtist, PayloadArtist{Nick: artist}); err != nil {
			return err
		}
	}

	// late joiners need everything drawn so far
	return c.manager.sendHistory(c, room)
}

func CreateRoomHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadCreate

	if err := decodePayload(e, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError

		if errors.As(err, &typeErr) {
			switch typeErr.Field {
			case "password":
				return game.ErrInvalidPassword
			case "visible":
				return game.ErrInvalidVisibility
			case "room":
				return game.ErrInvalidRoomName
			}
		}

		return err
	}

	if err := util.Validate.Struct(payload); err != nil {
		return game.ErrInvalidRoomName
	}

	if c.session.Registered() {
		return game.ErrAlreadyInRoom
	}

	password := ""
	if payload.Password != nil {
		password = *payload.Password
	}

	visible := true
	if payload.Visible != nil {
		visible = *payload.Visible
	}

	room, err := c.manager.registry.Create(payload.Room, password, visible)

	if err != nil {
		return err
	}

	log.Info().Str("room", room.Name()).Bool("password", room.HasPassword()).Bool("visible", visible).Msg("room created")

	c.manager.detachPending(c)
	c.manager.holdPending(c, room)

	return c.reply(e, EventCreate, PayloadRoom{Room: room.Name()})
}

// JoinRoomHandler remembers which room the client wants to play in; the
// client becomes a member once it registers a nick. Joining room 0 leaves.
func JoinRoomHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadJoin

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	if payload.Room.Leave {
		return leaveRoomCommand(e, c)
	}

	if c.session.Registered() {
		return game.ErrAlreadyInRoom
	}

	room, ok := c.manager.registry.Find(payload.Room.Name)

	if !ok {
		return game.ErrRoomNotFound
	}

	if err := room.CheckPassword(payload.Password); err != nil {
		return err
	}

	if c.session.Room != room {
		c.manager.detachPending(c)
		c.manager.holdPending(c, room)
	}

	return c.reply(e, EventJoin, PayloadJoin{Room: RoomTarget{Name: room.Name()}})
}

func leaveRoomCommand(e Event, c *Client) error {
	if !c.session.Registered() {
		return game.ErrNotInRoom
	}

	log.Info().Str("room", c.session.Room.Name()).Str("nick", c.session.Nick).Msg("member left")

	c.manager.leaveRoom(c)

	return c.reply(e, EventJoin, PayloadJoin{Room: RoomTarget{Leave: true}})
}

func ListUsersHandler(ctx context.Context, e Event, c *Client) error {
	if !c.session.Registered() {
		return game.ErrNotRegistered
	}

	return c.reply(e, EventListUsers, PayloadUsers{Users: c.session.Room.Members()})
}

func ListRoomsHandler(ctx context.Context, e Event, c *Client) error {
	return c.reply(e, EventListRooms, c.manager.registry.ListVisible())
}

// RoomInfoHandler tells the client whether a room exists and needs a
// password. A missing room is an answer, not an error.
func RoomInfoHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadRoom

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	room, ok := c.manager.registry.Find(payload.Room)

	if !ok {
		return c.reply(e, EventRoomInfo, PayloadRoomInfo{Message: game.ErrRoomNotFound.Message})
	}

	name := room.Name()

	return c.reply(e, EventRoomInfo, PayloadRoomInfo{Room: &name, Password: room.HasPassword()})
}

func SendMessageHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadSendMessage

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	if !c.session.Registered() {
		return game.ErrNotRegistered
	}

	nick := c.session.Nick

	return c.manager.broadcast(c.session.Room, EventSendMessage, PayloadSendMessage{
		Message: fmt.Sprintf("%v: %v", nick, payload.Message),
		From:    nick,
	}, nil)
}

// DrawHandler records a stroke from the artist and forwards it to everyone
// else; the artist has already drawn it locally.
func DrawHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadDraw

	if !c.session.Registered() || !c.session.Room.IsArtist(c.session.Nick) {
		return game.ErrNotArtist
	}

	if err := decodePayload(e, &payload); err != nil {
		return game.ErrInvalidStroke
	}

	stroke, err := game.ParseStroke(payload.Stroke)

	if err != nil {
		return err
	}

	room := c.session.Room

	if err := room.RecordStroke(c.session.Nick, stroke); err != nil {
		return err
	}

	return c.manager.broadcast(room, EventDraw, PayloadDraw{Stroke: stroke.Raw()}, c)
}

func ClearHandler(ctx context.Context, e Event, c *Client) error {
	if !c.session.Registered() {
		return game.ErrNotArtist
	}

	room := c.session.Room

	if err := room.Clear(c.session.Nick); err != nil {
		return err
	}

	return c.manager.broadcast(room, EventClear, nil, nil)
}

// UndoHandler drops the last stroke. Clients cannot erase, so everyone gets a
// clear followed by the remaining history.
func UndoHandler(ctx context.Context, e Event, c *Client) error {
	if !c.session.Registered() {
		return game.ErrNotArtist
	}

	room := c.session.Room

	if err := room.Undo(c.session.Nick); err != nil {
		return err
	}

	if err := c.manager.broadcast(room, EventClear, nil, nil); err != nil {
		return err
	}

	return c.manager.sendHistory(nil, room)
}

func SkipHandler(ctx context.Context, e Event, c *Client) error {
	if !c.session.Registered() {
		return game.ErrNotRegistered
	}

	room := c.session.Room

	outcome, err := room.VoteSkip(c.session.Nick)

	if err != nil {
		return err
	}

	result := PayloadSkip{
		Code:  SkipCodePending,
		Count: outcome.Count,
		Nick:  outcome.Voter,
		Total: outcome.Total,
	}

	if !outcome.Passed {
		return c.manager.broadcast(room, EventSkip, result, nil)
	}

	result.Code = SkipCodePassed
	result.Skipped = outcome.Skipped

	log.Info().Str("room", room.Name()).Str("skipped", outcome.Skipped).Int("votes", outcome.Count).Msg("turn skipped")

	if err := c.manager.broadcast(room, EventSkip, result, nil); err != nil {
		return err
	}

	if err := c.manager.broadcast(room, EventClear, nil, nil); err != nil {
		return err
	}

	c.manager.announceArtist(room)

	return nil
}

func HelpHandler(ctx context.Context, e Event, c *Client) error {
	commands := lo.Keys(c.manager.handlers)
	sort.Strings(commands)

	return c.reply(e, EventHelp, PayloadHelp{Commands: commands})
}

func decodePayload(e Event, v any) error {
	if len(e.Payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.Wrapf(err, "invalid %v payload", e.Type)
	}

	return nil
}

// leaveRoom removes the client from its room and tidies up after it: the
// room goes away when empty, and a departing artist ends the round.
// Callers hold the dispatch lock.
func (m *Manager) leaveRoom(c *Client) {
	room, nick := c.session.Room, c.session.Nick

	c.Leave(util.GroupKey(room.Name()))
	c.session.reset()

	wasArtist, err := room.RemoveMember(nick)

	if err != nil {
		log.Error().Err(err).Str("room", room.Name()).Str("nick", nick).Msg("session pointed at a room it is not a member of")
		return
	}

	if m.registry.DestroyIfEmpty(room) {
		log.Info().Str("room", room.Name()).Msg("room destroyed")
		return
	}

	if wasArtist {
		if err := m.broadcast(room, EventClear, nil, nil); err != nil {
			log.Error().Err(err).Str("room", room.Name()).Msg("could not broadcast clear")
		}

		room.Restart()
		m.announceArtist(room)
	}

	m.systemMessage(room, fmt.Sprintf("%v has disconnected.", nick))
}

// holdPending points the client at a room it has not registered in yet.
func (m *Manager) holdPending(c *Client, room *game.Room) {
	c.session.Room = room
	m.registry.Hold(room)
}

// detachPending forgets a room the client picked but never registered in,
// dropping it if nobody else is there or on the way in.
func (m *Manager) detachPending(c *Client) {
	if !c.session.Pending() {
		return
	}

	room := c.session.Room
	c.session.reset()
	m.registry.Release(room)

	if m.registry.DestroyIfEmpty(room) {
		log.Info().Str("room", room.Name()).Msg("abandoned room destroyed")
	}
}

func (m *Manager) broadcast(room *game.Room, evtType string, payload any, except *Client) error {
	evt, err := NewEvent(evtType, payload)

	if err != nil {
		return err
	}

	m.EmitToRoom(util.GroupKey(room.Name()), evt, except)

	return nil
}

func (m *Manager) systemMessage(room *game.Room, message string) {
	if err := m.broadcast(room, EventSendMessage, PayloadSendMessage{Message: message}, nil); err != nil {
		log.Error().Err(err).Str("room", room.Name()).Msg("could not send system message")
	}
}

func (m *Manager) announceArtist(room *game.Room) {
	artist, ok := room.Artist()

	if !ok {
		return
	}

	log.Info().Str("room", room.Name()).Str("artist", artist).Msg("artist changed")

	if err := m.broadcast(room, EventArtist, PayloadArtist{Nick: artist}, nil); err != nil {
		log.Error().Err(err).Str("room", room.Name()).Msg("could not announce artist")
	}
}

// sendHistory replays the room's strokes in order, to target only or to the
// whole room when target is nil.
func (m *Manager) sendHistory(target *Client, room *game.Room) error {
	for _, stroke := range room.History() {
		evt, err := NewEvent(EventDraw, PayloadDraw{Stroke: stroke.Raw()})

		if err != nil {
			return err
		}

		if target != nil {
			target.PushToEgress(evt)
		} else {
			m.EmitToRoom(util.GroupKey(room.Name()), evt, nil)
		}
	}

	return nil
}
