package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisissairam/vidoo-backend/internal/domain"
	"github.com/thisissairam/vidoo-backend/internal/service"
	"github.com/thisissairam/vidoo-backend/internal/signaling"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := signaling.NewRegistry()
	directory := signaling.NewDirectory()
	history := signaling.NewHistoryStore(10)
	signals := service.NewSignalService(registry, directory, history, nil)

	callController := NewCallController(signals, registry, []string{"stun:stun.l.google.com:19302"}, 16, nil)
	router := SetupRouter(nil, callController, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/calls/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event domain.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func send(t *testing.T, conn *websocket.Conn, event domain.Event) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(event))
}

func TestWebsocketCallFlow(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, domain.Event{Type: domain.EventJoinRoom, Room: "r1", DisplayName: "Alice"})

	ack := readEvent(t, alice)
	require.Equal(t, domain.EventRoomJoined, ack.Type)
	assert.Equal(t, "r1", ack.Room)
	assert.Empty(t, ack.Payload["members"])
	aliceID := ack.SenderID
	require.NotEmpty(t, aliceID)

	bob := dial(t, srv)
	send(t, bob, domain.Event{Type: domain.EventJoinRoom, Room: "r1", DisplayName: "Bob"})

	ack = readEvent(t, bob)
	require.Equal(t, domain.EventRoomJoined, ack.Type)
	members, ok := ack.Payload["members"].([]any)
	require.True(t, ok)
	require.Len(t, members, 1)
	first, ok := members[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, aliceID, first["peer_id"])
	assert.Equal(t, "Alice", first["display_name"])
	bobID := ack.SenderID

	joined := readEvent(t, alice)
	require.Equal(t, domain.EventPeerJoined, joined.Type)
	assert.Equal(t, bobID, joined.SenderID)
	assert.Equal(t, "Bob", joined.DisplayName)

	// Chat goes to Bob only; Alice's next event must not be an echo.
	send(t, alice, domain.Event{
		Type:    domain.EventChatMessage,
		Room:    "r1",
		Payload: map[string]any{"message": "hi"},
	})

	chat := readEvent(t, bob)
	require.Equal(t, domain.EventChatMessage, chat.Type)
	assert.Equal(t, aliceID, chat.SenderID)
	assert.Equal(t, "hi", chat.Payload["message"])

	// Negotiation is forwarded verbatim to its target.
	send(t, bob, domain.Event{
		Type:     domain.EventNegotiation,
		TargetID: aliceID,
		Payload:  map[string]any{"sdp": "v=0 ..."},
	})

	offer := readEvent(t, alice)
	require.Equal(t, domain.EventNegotiation, offer.Type)
	assert.Equal(t, bobID, offer.SenderID)
	assert.Equal(t, "v=0 ...", offer.Payload["sdp"])

	// Bob hangs up by dropping the socket; Alice hears peer-left.
	bob.Close()

	left := readEvent(t, alice)
	require.Equal(t, domain.EventPeerLeft, left.Type)
	assert.Equal(t, bobID, left.SenderID)
}

func TestWebsocketHistoryReplayOnJoin(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, domain.Event{Type: domain.EventJoinRoom, Room: "r1", DisplayName: "Alice"})
	readEvent(t, alice)

	carol := dial(t, srv)
	send(t, carol, domain.Event{Type: domain.EventJoinRoom, Room: "r1", DisplayName: "Carol"})
	readEvent(t, carol)
	readEvent(t, alice) // peer-joined for Carol

	send(t, alice, domain.Event{
		Type:    domain.EventChatMessage,
		Room:    "r1",
		Payload: map[string]any{"message": "before you arrived"},
	})

	// Once Carol has the message, the append has happened and the
	// replay for the next joiner is deterministic.
	chat := readEvent(t, carol)
	require.Equal(t, domain.EventChatMessage, chat.Type)

	bob := dial(t, srv)
	send(t, bob, domain.Event{Type: domain.EventJoinRoom, Room: "r1", DisplayName: "Bob"})

	ack := readEvent(t, bob)
	require.Equal(t, domain.EventRoomJoined, ack.Type)

	replay := readEvent(t, bob)
	require.Equal(t, domain.EventChatMessage, replay.Type)
	assert.Equal(t, "before you arrived", replay.Payload["message"])
}

func TestWebsocketBadRequestKeepsConnectionOpen(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)

	// Chat before joining anything.
	send(t, conn, domain.Event{
		Type:    domain.EventChatMessage,
		Room:    "r1",
		Payload: map[string]any{"message": "hello?"},
	})

	reply := readEvent(t, conn)
	require.Equal(t, domain.EventBadRequest, reply.Type)
	assert.NotEmpty(t, reply.Payload["reason"])

	// The connection is still usable.
	send(t, conn, domain.Event{Type: domain.EventJoinRoom, Room: "r1", DisplayName: "Late"})
	ack := readEvent(t, conn)
	assert.Equal(t, domain.EventRoomJoined, ack.Type)
}

func TestMembersEndpoint(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, domain.Event{Type: domain.EventJoinRoom, Room: "standup", DisplayName: "Alice"})
	readEvent(t, conn)

	resp, err := http.Get(srv.URL + "/api/v1/calls/standup/members")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Members []struct {
			PeerID      string `json:"peer_id"`
			DisplayName string `json:"display_name"`
		} `json:"members"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Members, 1)
	assert.Equal(t, "Alice", body.Members[0].DisplayName)
	assert.NotEmpty(t, body.Members[0].PeerID)
}

func TestIceServersEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/calls/ice-servers")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		IceServers []struct {
			URLs []string `json:"urls"`
		} `json:"ice_servers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.IceServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, body.IceServers[0].URLs)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
