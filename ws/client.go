package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/sketch-server/game"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
)

const (
	readLimit = 4096
	// egressLimit bounds how far a client may fall behind before it is
	// disconnected. Nothing queued below it is ever dropped.
	egressLimit = 1 << 15
)

var ErrSlowClient = errors.New("client fell too far behind, disconnecting")

type Client struct {
	ID          string
	connection  *websocket.Conn
	manager     *Manager
	egressMu    sync.Mutex
	egress      []Event
	ready       chan struct{}
	JoinedRooms []string
	session     Session
	// closed is set once the disconnect path ran; guarded by the dispatch lock
	closed bool
	err    chan error
}

func NewClient(conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:          uuid.NewString(),
		connection:  conn,
		manager:     manager,
		egress:      []Event{},
		ready:       make(chan struct{}, 1),
		JoinedRooms: []string{},
		err:         make(chan error, 1),
	}
}

// Reads incoming messages from the clients websocket connection
func (c *Client) readMessages(ctx context.Context) {
	c.connection.SetReadLimit(readLimit)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := c.connection.ReadMessage()

			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("client", c.ID).Msg("unexpected closure of socket connection")
				}
				c.handleError(err)
				return
			}

			var evt Event

			// a bad envelope only costs the client this one command
			if err := json.Unmarshal(payload, &evt); err != nil {
				c.pushError("", errors.Wrap(err, "cannot unmarshal event"))
				continue
			}

			log.Debug().Str("client", c.ID).Str("type", evt.Type).Str("trace_id", evt.TraceID).Msg("event received")

			if err := c.manager.routeEvent(ctx, evt, c); err != nil {
				log.Debug().Err(err).Str("client", c.ID).Str("type", evt.Type).Msg("event rejected")
				c.pushError(evt.TraceID, err)
			}
		}
	}
}

// writes messages queued on the client's egress, in order
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
	}()

	for {
		select {
		// if the context is cancelled, return
		case <-ctx.Done():
			return
		case <-c.ready:
			for _, message := range c.takeEgress() {
				data, err := json.Marshal(message)

				if err != nil {
					c.handleError(err)
					return
				}

				if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
					c.handleError(err)
					return
				}
			}
		case <-ticker.C:
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte("")); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

// takeEgress hands over everything queued so far.
func (c *Client) takeEgress() []Event {
	c.egressMu.Lock()
	defer c.egressMu.Unlock()

	events := c.egress
	c.egress = []Event{}

	return events
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// Push error to client error channel. This is used by the
// http handler to know when an error has occurred in a client's readMessage or writeMessage goroutine.
// Only the first error is kept; the handler tears the connection down on it.
func (c *Client) handleError(e error) {
	select {
	case c.err <- e:
	default:
	}
}

// Returns the error channel
func (c *Client) Err() chan error {
	return c.err
}

// Creates an event and pushes to client's egress
func (c *Client) PushEventToEgress(evtType string, payload any) error {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		return err
	}
	c.PushToEgress(evt)
	return nil
}

// Queues an event to be delivered via the websocket connection. Never blocks
// and never drops: a client whose backlog reaches egressLimit is disconnected
// instead.
func (c *Client) PushToEgress(evt Event) {
	c.egressMu.Lock()

	if len(c.egress) >= egressLimit {
		c.egressMu.Unlock()
		log.Warn().Str("client", c.ID).Str("type", evt.Type).Msg("egress backlog full, disconnecting client")
		c.handleError(ErrSlowClient)
		return
	}

	c.egress = append(c.egress, evt)
	c.egressMu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// reply answers the command e with a unicast event.
func (c *Client) reply(e Event, evtType string, payload any) error {
	evt, err := NewReply(e.TraceID, evtType, payload)
	if err != nil {
		return err
	}
	c.PushToEgress(evt)
	return nil
}

// pushError reports a rejected command to this client only.
func (c *Client) pushError(traceId string, err error) {
	evt, mErr := NewErrorEvent(traceId, errorPayload(err))

	if mErr != nil {
		log.Error().Err(mErr).Str("client", c.ID).Msg("error creating error event")
		return
	}

	c.PushToEgress(evt)
}

func errorPayload(err error) PayloadError {
	var gErr *game.Error

	if errors.As(err, &gErr) {
		return PayloadError{Message: gErr.Message, Code: gErr.Code, Kind: gErr.Kind}
	}

	return PayloadError{Message: err.Error(), Code: codeInvalidPayload, Kind: game.KindValidation}
}

// Helper method to join a broadcast group
func (c *Client) Join(group string) {
	c.manager.Lock()
	defer c.manager.Unlock()

	members := c.manager.groups[group]

	// if client is not in group
	if !slices.Contains(members, c) {
		c.manager.groups[group] = append(members, c)
	}

	// if group is not in list of joined groups
	if !slices.Contains(c.JoinedRooms, group) {
		c.JoinedRooms = append(c.JoinedRooms, group)
	}
}

// Leave causes a client to leave a broadcast group
func (c *Client) Leave(group string) {
	c.manager.Lock()
	defer c.manager.Unlock()

	c.leave(group)
}

func (c *Client) leave(group string) {
	members := c.manager.groups[group]

	// remove client from group slice
	if index := slices.Index(members, c); index >= 0 {
		members = slices.Delete(members, index, index+1)
	}

	if len(members) == 0 {
		delete(c.manager.groups, group)
	} else {
		c.manager.groups[group] = members
	}

	// remove group from list of joined groups
	if index := slices.Index(c.JoinedRooms, group); index >= 0 {
		c.JoinedRooms = slices.Delete(c.JoinedRooms, index, index+1)
	}
}

func (c *Client) LeaveAllRooms() {
	c.manager.Lock()
	defer c.manager.Unlock()

	for _, group := range append([]string{}, c.JoinedRooms...) {
		c.leave(group)
	}
}
