package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/judgegodwins/sketch-server/util"
	"github.com/judgegodwins/sketch-server/ws"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := NewServer(&util.Config{
		Port:      "0",
		LogLevel:  "error",
		StaticDir: t.TempDir(),
		GinMode:   "test",
	})

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func write(t *testing.T, conn *websocket.Conn, evtType string, payload any) {
	t.Helper()

	b, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(ws.Event{Type: evtType, TraceID: "t-" + evtType, Payload: b}))
}

func read(t *testing.T, conn *websocket.Conn, evtType string) ws.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var evt ws.Event
	require.NoError(t, conn.ReadJSON(&evt))
	require.Equal(t, evtType, evt.Type, string(evt.Payload))

	return evt
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()

	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()

	require.NoError(t, json.NewDecoder(res.Body).Decode(v))

	return res.StatusCode
}

func TestGameOverWebsocket(t *testing.T) {
	ts := newTestServer(t)

	alice := dial(t, ts)
	write(t, alice, ws.EventCreate, map[string]any{"room": "garden", "password": "pw"})
	require.Equal(t, "t-create", read(t, alice, ws.EventCreate).TraceID)

	write(t, alice, ws.EventNick, ws.PayloadNick{Nick: "alice"})
	read(t, alice, ws.EventSendMessage)
	read(t, alice, ws.EventNick)
	read(t, alice, ws.EventArtist)

	bob := dial(t, ts)

	write(t, bob, ws.EventJoin, map[string]any{"room": "garden"})
	evt := read(t, bob, ws.EventError)
	var failure ws.PayloadError
	require.NoError(t, json.Unmarshal(evt.Payload, &failure))
	require.Equal(t, "password_required", failure.Code)
	require.Equal(t, "t-join", evt.TraceID)

	write(t, bob, ws.EventJoin, map[string]any{"room": "garden", "password": "pw"})
	read(t, bob, ws.EventJoin)

	write(t, bob, ws.EventNick, ws.PayloadNick{Nick: "bob"})
	read(t, bob, ws.EventSendMessage)
	read(t, bob, ws.EventNick)

	var artist ws.PayloadArtist
	require.NoError(t, json.Unmarshal(read(t, bob, ws.EventArtist).Payload, &artist))
	require.Equal(t, "alice", artist.Nick)

	read(t, alice, ws.EventSendMessage)

	stroke := `{"type":"mousedown","clientX":4,"clientY":2}`
	write(t, alice, ws.EventDraw, ws.PayloadDraw{Stroke: stroke})

	var draw ws.PayloadDraw
	require.NoError(t, json.Unmarshal(read(t, bob, ws.EventDraw).Payload, &draw))
	require.Equal(t, stroke, draw.Stroke)

	require.NoError(t, bob.Close())

	var msg ws.PayloadSendMessage
	require.NoError(t, json.Unmarshal(read(t, alice, ws.EventSendMessage).Payload, &msg))
	require.Equal(t, "bob has disconnected.", msg.Message)
}

func TestMalformedEnvelopeKeepsConnection(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	var failure ws.PayloadError
	require.NoError(t, json.Unmarshal(read(t, conn, ws.EventError).Payload, &failure))
	require.Equal(t, "invalid_payload", failure.Code)

	write(t, conn, ws.EventHelp, nil)
	read(t, conn, ws.EventHelp)
}

func TestRoomEndpoints(t *testing.T) {
	ts := newTestServer(t)

	conn := dial(t, ts)
	write(t, conn, ws.EventCreate, map[string]any{"room": "garden"})
	read(t, conn, ws.EventCreate)
	write(t, conn, ws.EventNick, ws.PayloadNick{Nick: "alice"})
	read(t, conn, ws.EventSendMessage)

	t.Run("lists public rooms", func(t *testing.T) {
		var body struct {
			Success bool `json:"success"`
			Data    []struct {
				Name     string `json:"name"`
				Password bool   `json:"password"`
				Users    int    `json:"users"`
			} `json:"data"`
		}

		require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/rooms", &body))
		require.True(t, body.Success)
		require.Len(t, body.Data, 1)
		require.Equal(t, "garden", body.Data[0].Name)
		require.Equal(t, 1, body.Data[0].Users)
	})

	t.Run("finds a room", func(t *testing.T) {
		var body struct {
			Data struct {
				Name     string `json:"name"`
				Password bool   `json:"password"`
			} `json:"data"`
		}

		require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/rooms/garden", &body))
		require.Equal(t, "garden", body.Data.Name)
		require.False(t, body.Data.Password)
	})

	t.Run("unknown room", func(t *testing.T) {
		var body struct {
			Success bool `json:"success"`
		}

		require.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/rooms/nowhere", &body))
		require.False(t, body.Success)
	})

	t.Run("name too long", func(t *testing.T) {
		var body struct {
			Errors []string `json:"errors"`
		}

		require.Equal(t, http.StatusUnprocessableEntity, getJSON(t, ts.URL+"/rooms/"+strings.Repeat("a", 200), &body))
		require.NotEmpty(t, body.Errors)
	})
}

func TestLateJoinerReceivesWholeCanvas(t *testing.T) {
	ts := newTestServer(t)

	alice := dial(t, ts)
	write(t, alice, ws.EventCreate, map[string]any{"room": "atelier"})
	read(t, alice, ws.EventCreate)
	write(t, alice, ws.EventNick, ws.PayloadNick{Nick: "alice"})
	read(t, alice, ws.EventSendMessage)
	read(t, alice, ws.EventNick)
	read(t, alice, ws.EventArtist)

	const strokes = 2000

	sent := make([]string, 0, strokes)
	for i := 0; i < strokes; i++ {
		kind := "mousemove"
		if i == 0 {
			kind = "mousedown"
		}

		s := fmt.Sprintf(`{"type":"%v","clientX":%v,"clientY":%v}`, kind, i, i)
		sent = append(sent, s)
		write(t, alice, ws.EventDraw, ws.PayloadDraw{Stroke: s})
	}

	bob := dial(t, ts)
	write(t, bob, ws.EventJoin, map[string]any{"room": "atelier"})
	read(t, bob, ws.EventJoin)
	write(t, bob, ws.EventNick, ws.PayloadNick{Nick: "bob"})
	read(t, bob, ws.EventSendMessage)
	read(t, bob, ws.EventNick)
	read(t, bob, ws.EventArtist)

	for i := 0; i < strokes; i++ {
		var draw ws.PayloadDraw
		require.NoError(t, json.Unmarshal(read(t, bob, ws.EventDraw).Payload, &draw))
		require.Equal(t, sent[i], draw.Stroke)
	}
}
