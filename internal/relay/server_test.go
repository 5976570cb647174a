package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startRelay(t *testing.T, origins ...string) (*Hub, *httptest.Server) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(hub, logger, origins).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, roomID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/" + roomID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Equal(t, protocol.RelayJoined, readFrame(t, conn))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestHealthz(t *testing.T) {
	_, srv := startRelay(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRelayFansOutWithinRoom(t *testing.T) {
	hub, srv := startRelay(t)

	a := dial(t, srv, "ROOM1")
	b := dial(t, srv, "ROOM1")
	other := dial(t, srv, "ROOM2")

	require.Eventually(t, func() bool {
		for _, info := range hub.Rooms() {
			if info.ID == "ROOM1" && info.Clients == 2 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("first")))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("second")))

	assert.Equal(t, "first", readFrame(t, b))
	assert.Equal(t, "second", readFrame(t, b))
	assert.Equal(t, "first", readFrame(t, a), "sender receives its own frames")
	assert.Equal(t, "second", readFrame(t, a))

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other rooms see nothing")
}

func TestRoomsEndpoint(t *testing.T) {
	hub, srv := startRelay(t)
	dial(t, srv, "ABCDE")

	require.Eventually(t, func() bool { return len(hub.Rooms()) == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Rooms []RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "ABCDE", body.Rooms[0].ID)
	assert.Equal(t, 1, body.Rooms[0].Clients)
}

func TestClosedClientLeavesRoom(t *testing.T) {
	hub, srv := startRelay(t)
	conn := dial(t, srv, "ABCDE")
	require.Eventually(t, func() bool { return len(hub.Rooms()) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return len(hub.Rooms()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://empire.example"})

	req := httptest.NewRequest(http.MethodGet, "/rooms/A/ws", nil)
	req.Header.Set("Origin", "https://empire.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"*"})(req))
}
