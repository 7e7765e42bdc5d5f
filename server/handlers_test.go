package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bakabot307/game/server/protocol"
)

func newTestServer(t *testing.T) (*sessionStore, *httptest.Server) {
	t.Helper()
	s := newTestStore()
	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/api/rooms", s.handleRooms)
	r.Get("/api/scores", s.handleScores)
	srv := httptest.NewServer(withCORS(r))
	t.Cleanup(srv.Close)
	return s, srv
}

func dialWS(t *testing.T, srv *httptest.Server, identity, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?identity=" + identity + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.ServerMessage {
	t.Helper()
	var msg protocol.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketSessionFlow(t *testing.T) {
	_, srv := newTestServer(t)

	host := dialWS(t, srv, "host-1", "Ana")
	welcome := readMessage(t, host)
	require.Equal(t, protocol.EventWelcome, welcome.Type)
	assert.Equal(t, "host-1", welcome.Identity)
	assert.Nil(t, welcome.Room, "no membership to resume yet")

	require.NoError(t, host.WriteJSON(protocol.ClientMessage{
		Type:        protocol.IntentCreateRoom,
		Name:        "Ana",
		DesiredCode: "WSROOM",
	}))

	// The join broadcast lands before the synchronous ack.
	joined := readMessage(t, host)
	require.Equal(t, protocol.EventPlayerJoined, joined.Type)
	require.NotNil(t, joined.Room)
	assert.Equal(t, "WSROOM", joined.Room.Code)
	assert.Equal(t, protocol.StateLobby, joined.Room.State)

	ack := readMessage(t, host)
	require.Equal(t, protocol.EventAck, ack.Type)
	require.NotNil(t, ack.Ack)
	assert.True(t, ack.Ack.OK)
	assert.Equal(t, protocol.IntentCreateRoom, ack.Ack.Intent)

	// A second client joins; both connections see the roster change.
	guest := dialWS(t, srv, "guest-1", "Bo")
	readMessage(t, guest) // welcome
	require.NoError(t, guest.WriteJSON(protocol.ClientMessage{
		Type:     protocol.IntentJoinRoom,
		RoomCode: "WSROOM",
		Name:     "Bo",
	}))

	hostView := readMessage(t, host)
	require.Equal(t, protocol.EventPlayerJoined, hostView.Type)
	assert.Equal(t, "guest-1", hostView.Player)
	require.Len(t, hostView.Room.Players, 2)

	guestView := readMessage(t, guest)
	require.Equal(t, protocol.EventPlayerJoined, guestView.Type)
	guestAck := readMessage(t, guest)
	require.Equal(t, protocol.EventAck, guestAck.Type)
	assert.True(t, guestAck.Ack.OK)
}

func TestWebSocketResumeSendsSnapshot(t *testing.T) {
	_, srv := newTestServer(t)

	first := dialWS(t, srv, "host-1", "Ana")
	readMessage(t, first) // welcome
	require.NoError(t, first.WriteJSON(protocol.ClientMessage{
		Type: protocol.IntentCreateRoom, Name: "Ana", DesiredCode: "RESUME",
	}))
	readMessage(t, first) // player_joined
	readMessage(t, first) // ack

	// A second connection with the same identity resumes the membership
	// and gets the room snapshot inside its welcome.
	second := dialWS(t, srv, "host-1", "Ana")
	welcome := readMessage(t, second)
	require.Equal(t, protocol.EventWelcome, welcome.Type)
	require.NotNil(t, welcome.Room)
	assert.Equal(t, "RESUME", welcome.Room.Code)
}

func TestWebSocketMalformedFrame(t *testing.T) {
	_, srv := newTestServer(t)

	conn := dialWS(t, srv, "host-1", "Ana")
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.NotEmpty(t, msg.Error)
}

func TestRoomsAndScoresEndpoints(t *testing.T) {
	s, srv := newTestServer(t)
	createRoom(t, s, "host-1", "Ana", "API001")
	s.mu.Lock()
	s.leaderboard["Ana"] = 40
	s.mu.Unlock()

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	var rooms struct {
		Rooms []map[string]any `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "API001", rooms.Rooms[0]["code"])

	resp, err = http.Get(srv.URL + "/api/scores")
	require.NoError(t, err)
	defer resp.Body.Close()
	var scores struct {
		Scores []protocol.ScoreEntry `json:"scores"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scores))
	require.Equal(t, []protocol.ScoreEntry{{Name: "Ana", Score: 40}}, scores.Scores)
}
