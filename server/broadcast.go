package main

import (
	"encoding/json"
	"sort"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Bakabot307/game/server/protocol"
)

// snapshotLocked builds the full authoritative view of a room. The board
// is deep-copied so the snapshot cannot observe later mutations.
func (s *sessionStore) snapshotLocked(rm *room) *protocol.RoomSnapshot {
	players := make([]protocol.PlayerInfo, 0, len(rm.players))
	for _, p := range rm.players {
		players = append(players, protocol.PlayerInfo{
			Identity:  p.identity,
			Name:      p.name,
			Score:     p.score,
			Connected: p.connected,
			Host:      p.identity == rm.host,
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Identity < players[j].Identity })
	return &protocol.RoomSnapshot{
		Code:    rm.code,
		State:   rm.state,
		Level:   rm.level,
		Host:    rm.host,
		Board:   rm.board.Clone().Cells,
		Players: players,
	}
}

// broadcastLocked serializes a message once and pushes it to every
// currently-connected member of the room. Connection writes happen under
// the store lock, which also serializes them per connection.
func (s *sessionStore) broadcastLocked(rm *room, msg protocol.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room", rm.code).Msg("failed to encode broadcast")
		return
	}
	for identity, p := range rm.players {
		if !p.connected {
			continue
		}
		if conn, ok := s.conns[identity]; ok && conn != nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}
}

// sendLocked pushes a message to one identity's live connection, if any.
func (s *sessionStore) sendLocked(identity string, msg protocol.ServerMessage) {
	conn, ok := s.conns[identity]
	if !ok || conn == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("identity", identity).Msg("failed to encode message")
		return
	}
	conn.WriteMessage(websocket.TextMessage, data)
}
