package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/sketch-server/game"
	"github.com/judgegodwins/sketch-server/util"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

const codeInvalidPayload = "invalid_payload"

var ErrUnknownEvent = &game.Error{
	Kind:    game.KindValidation,
	Code:    "unknown_event",
	Message: "there is no such event type",
}

type ClientList map[string]*Client

// Manager owns every live connection, the broadcast groups they belong to
// and the room registry. Event handling and disconnects are serialized on
// dispatch so room state is only ever touched by one command at a time.
type Manager struct {
	clients ClientList
	sync.RWMutex
	handlers map[string]EventHandler
	groups   map[string][]*Client
	registry *game.Registry
	dispatch sync.Mutex
	upgrader websocket.Upgrader
	origins  []string
}

func NewManager(config *util.Config) *Manager {
	m := &Manager{
		clients:  make(ClientList),
		handlers: make(map[string]EventHandler),
		groups:   make(map[string][]*Client),
		registry: game.NewRegistry(),
		origins:  config.AllowedOrigins,
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventNick] = RegisterNickHandler
	m.handlers[EventCreate] = CreateRoomHandler
	m.handlers[EventJoin] = JoinRoomHandler
	m.handlers[EventListUsers] = ListUsersHandler
	m.handlers[EventListRooms] = ListRoomsHandler
	m.handlers[EventRoomInfo] = RoomInfoHandler
	m.handlers[EventSendMessage] = SendMessageHandler
	m.handlers[EventDraw] = DrawHandler
	m.handlers[EventClear] = ClearHandler
	m.handlers[EventUndo] = UndoHandler
	m.handlers[EventSkip] = SkipHandler
	m.handlers[EventHelp] = HelpHandler
}

func (m *Manager) routeEvent(ctx context.Context, evt Event, c *Client) error {
	m.dispatch.Lock()
	defer m.dispatch.Unlock()

	// a reader can still hand over a frame after the client was torn down
	if c.closed {
		log.Debug().Str("client", c.ID).Str("type", evt.Type).Msg("event for closed client ignored")
		return nil
	}

	if handler, ok := m.handlers[evt.Type]; ok {
		if err := handler(ctx, evt, c); err != nil {
			return err
		}

		return nil
	}

	return ErrUnknownEvent
}

// EmitToRoom pushes evt to every client in group except the given one,
// which may be nil.
func (m *Manager) EmitToRoom(group string, evt Event, except *Client) {
	m.RLock()
	defer m.RUnlock()

	for _, client := range m.groups[group] {
		if client == except {
			continue
		}
		client.PushToEgress(evt)
	}
}

// GroupSize returns how many clients are subscribed to group.
func (m *Manager) GroupSize(group string) int {
	m.RLock()
	defer m.RUnlock()

	return len(m.groups[group])
}

// ListRooms returns the public room list.
func (m *Manager) ListRooms() []game.Summary {
	m.dispatch.Lock()
	defer m.dispatch.Unlock()

	return m.registry.ListVisible()
}

// LookupRoom reports whether a room exists and whether it needs a password.
func (m *Manager) LookupRoom(name string) (exists bool, hasPassword bool) {
	m.dispatch.Lock()
	defer m.dispatch.Unlock()

	room, ok := m.registry.Find(name)

	if !ok {
		return false, false
	}

	return true, room.HasPassword()
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	m.clients[client.ID] = client
}

// removeClient runs the disconnect path for the client and forgets it.
func (m *Manager) removeClient(client *Client) {
	m.disconnect(client)

	client.LeaveAllRooms()

	m.Lock()
	defer m.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		if client.connection != nil {
			client.connection.Close()
		}
		delete(m.clients, client.ID)
	}
}

func (m *Manager) disconnect(client *Client) {
	m.dispatch.Lock()
	defer m.dispatch.Unlock()

	client.closed = true

	if client.session.Registered() {
		log.Info().Str("room", client.session.Room.Name()).Str("nick", client.session.Nick).Msg("member disconnected")
		m.leaveRoom(client)
		return
	}

	m.detachPending(client)
}

// Shutdown closes every connection. Their handlers then run the usual
// disconnect path.
func (m *Manager) Shutdown() {
	m.RLock()
	clients := lo.Values(m.clients)
	m.RUnlock()

	for _, client := range clients {
		if client.connection == nil {
			continue
		}

		client.connection.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second),
		)
		client.connection.Close()
	}
}

// Websocket connection handler
func (m *Manager) ServeWS(c *gin.Context) {
	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)

	if err != nil {
		log.Error().Err(err).Msg("error upgrading to websocket connection")
		return
	}

	client := NewClient(conn, m)

	m.addClient(client)

	log.Debug().Str("client", client.ID).Str("ip", c.ClientIP()).Msg("client connected")

	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()
		client.connection.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		m.removeClient(client)
	}()

	go client.readMessages(ctx)
	go client.writeMessages(ctx)

	err = <-client.Err()

	log.Debug().Err(err).Str("client", client.ID).Msg("client gone")
}

// Non-browser clients send no Origin. An empty allow list accepts any origin.
func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if origin == "" || len(m.origins) == 0 {
		return true
	}

	return slices.Contains(m.origins, origin)
}
