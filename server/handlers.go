package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Bakabot307/game/server/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS upgrades a client connection and runs its reader loop. A
// client presents a durable identity token to resume a membership; a
// client without one is assigned a fresh identity in the welcome message.
func (s *sessionStore) handleWS(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	name := r.URL.Query().Get("name")
	if identity == "" {
		identity = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.attach(conn, identity, name)

	go func() {
		defer func() {
			conn.Close()
			s.drop(conn, identity)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg protocol.ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				s.malformed(identity)
				continue
			}
			s.handleIntent(identity, msg)
		}
	}()
}

// malformed reports an undecodable frame back to the sender. Bad input
// is always rejected, never fatal.
func (s *sessionStore) malformed(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(identity, protocol.ServerMessage{Type: "error", Error: "malformed message"})
}

// handleRooms serves the public room listing.
func (s *sessionStore) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"rooms": s.listRooms()})
}

// handleScores serves the cross-room leaderboard.
func (s *sessionStore) handleScores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"scores": s.topScores(topScoreLimit)})
}
