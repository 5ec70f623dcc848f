package ws

import (
	"context"
	"encoding/json"

	"github.com/judgegodwins/sketch-server/game"
)

type Event struct {
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id"`
	Payload json.RawMessage `json:"payload"`
}

type EventHandler func(ctx context.Context, evt Event, c *Client) error

// Commands sent by clients. Replies reuse the command name.
const (
	EventNick        = "nick"
	EventCreate      = "create"
	EventJoin        = "join"
	EventListUsers   = "list"
	EventListRooms   = "rooms"
	EventRoomInfo    = "room"
	EventSendMessage = "msg"
	EventDraw        = "draw"
	EventClear       = "clear"
	EventUndo        = "undo"
	EventSkip        = "skip"
	EventHelp        = "help"
)

// Events only the server sends.
const (
	EventArtist = "artist"
	EventError  = "error"
)

const (
	SkipCodePassed  = 0
	SkipCodePending = -1
)

type PayloadError struct {
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Kind    game.Kind `json:"kind"`
}

type PayloadNick struct {
	Nick string `json:"nick"`
}

type PayloadCreate struct {
	Room     string  `json:"room" validate:"required,max=128"`
	Password *string `json:"password"`
	Visible  *bool   `json:"visible"`
}

type PayloadJoin struct {
	Room     RoomTarget `json:"room"`
	Password string     `json:"password,omitempty"`
}

type PayloadRoom struct {
	Room string `json:"room"`
}

type PayloadRoomInfo struct {
	Room     *string `json:"room"`
	Password bool    `json:"password"`
	Message  string  `json:"message,omitempty"`
}

type PayloadUsers struct {
	Users []string `json:"users"`
}

type PayloadSendMessage struct {
	Message string `json:"message"`
	From    string `json:"from"`
}

type PayloadDraw struct {
	Stroke string `json:"stroke"`
}

type PayloadArtist struct {
	Nick string `json:"nick"`
}

type PayloadSkip struct {
	Code    int    `json:"code"`
	Count   int    `json:"count"`
	Nick    string `json:"nick"`
	Skipped string `json:"skipped,omitempty"`
	Total   int    `json:"total"`
}

type PayloadHelp struct {
	Commands []string `json:"commands"`
}

// RoomTarget is the room field of a join command: a room name, or the number
// 0 meaning "leave the current room".
type RoomTarget struct {
	Name  string
	Leave bool
}

func (t *RoomTarget) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = RoomTarget{}
		return nil
	}

	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*t = RoomTarget{Name: name}
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err == nil && n == 0 {
		*t = RoomTarget{Leave: true}
		return nil
	}

	return game.ErrInvalidRoomName
}

func (t RoomTarget) MarshalJSON() ([]byte, error) {
	if t.Leave {
		return []byte("0"), nil
	}

	return json.Marshal(t.Name)
}

func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evt := NewEventStruct(evtType, b, "")

	return evt, nil
}

// NewReply builds an event answering the command with the given trace id.
func NewReply(traceId, evtType string, payload any) (Event, error) {
	evt, err := NewEvent(evtType, payload)

	if err != nil {
		return Event{}, err
	}

	evt.TraceID = traceId

	return evt, nil
}

func NewErrorEvent(traceId string, payload PayloadError) (Event, error) {
	return NewReply(traceId, EventError, payload)
}

func NewEventStruct(evtType string, payload []byte, traceId string) Event {
	return Event{
		Type:    evtType,
		TraceID: traceId,
		Payload: payload,
	}
}
