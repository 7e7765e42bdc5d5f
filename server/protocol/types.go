// Package protocol defines the JSON messages exchanged with clients:
// inbound intents, outbound events and the authoritative room snapshot.
// The server always pushes full snapshots rather than deltas; a client
// that misses a message is fully corrected by the next one.
package protocol

import "github.com/Bakabot307/game/server/board"

// Client intent types.
const (
	IntentCreateRoom   = "create_room"
	IntentJoinRoom     = "join_room"
	IntentLeaveRoom    = "leave_room"
	IntentStartGame    = "start_game"
	IntentEndGame      = "end_game"
	IntentRestartGame  = "restart_game"
	IntentCloseRoom    = "close_room"
	IntentSetLevel     = "set_level"
	IntentSubmitMove   = "submit_move"
	IntentRemovePlayer = "remove_player"
)

// Server event types.
const (
	EventWelcome       = "welcome"
	EventAck           = "ack"
	EventRoomState     = "room_state"
	EventReshuffled    = "board_reshuffled"
	EventRoomClosed    = "room_closed"
	EventPlayerJoined  = "player_joined"
	EventPlayerLeft    = "player_left"
	EventDisconnected  = "player_disconnected"
	EventReconnected   = "player_reconnected"
	EventGameStarted   = "game_started"
	EventGameRestarted = "game_restarted"
	EventGameEnded     = "game_ended"
)

// FailKind classifies a rejected intent. All rejections are local and
// recoverable; none of them mutates room state.
type FailKind string

const (
	FailNotFound     FailKind = "not_found"
	FailUnauthorized FailKind = "unauthorized"
	FailInvalidState FailKind = "invalid_state"
	FailInvalidInput FailKind = "invalid_input"
	FailNotMatchable FailKind = "not_matchable"
	FailNoPath       FailKind = "no_path"
)

// Room lifecycle states.
const (
	StateLobby      = "lobby"
	StateInProgress = "in_progress"
	StateEnded      = "ended"
)

// ClientMessage is the envelope for every inbound intent.
type ClientMessage struct {
	Type        string     `json:"type"`
	RoomCode    string     `json:"roomCode,omitempty"`
	DesiredCode string     `json:"desiredCode,omitempty"`
	Name        string     `json:"name,omitempty"`
	Level       int        `json:"level,omitempty"`
	A           *board.Pos `json:"a,omitempty"`
	B           *board.Pos `json:"b,omitempty"`
	Target      string     `json:"target,omitempty"` // identity, for remove_player
}

// PlayerInfo is the per-player slice of a snapshot.
type PlayerInfo struct {
	Identity  string `json:"identity"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	Host      bool   `json:"host"`
}

// RoomSnapshot is the full authoritative view of one room.
type RoomSnapshot struct {
	Code    string       `json:"code"`
	State   string       `json:"state"`
	Level   int          `json:"level"`
	Host    string       `json:"host"`
	Board   [][]int      `json:"board"`
	Players []PlayerInfo `json:"players"`
}

// Ack reports the synchronous outcome of one intent to its issuer.
type Ack struct {
	Intent string      `json:"intent"`
	OK     bool        `json:"ok"`
	Kind   FailKind    `json:"kind,omitempty"`
	Reason string      `json:"reason,omitempty"`
	Path   []board.Pos `json:"path,omitempty"` // corner points of a valid move
}

// ScoreEntry is one row of the cross-room leaderboard.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ServerMessage is the envelope for every outbound event.
type ServerMessage struct {
	Type     string        `json:"type"`
	Identity string        `json:"identity,omitempty"` // welcome: assigned identity
	Player   string        `json:"player,omitempty"`   // subject of player events
	Room     *RoomSnapshot `json:"room,omitempty"`
	Ack      *Ack          `json:"ack,omitempty"`
	Error    string        `json:"error,omitempty"`
}
