package main

import (
	"time"

	"github.com/Bakabot307/game/server/board"
)

const (
	scoreAward      = 10
	disconnectGrace = 45 * time.Second
	idleRoomTimeout = 10 * time.Minute
	sweepInterval   = time.Minute
	maxNameLen      = 32
	topScoreLimit   = 10

	// A deadlocked board is reshuffled until a move exists; a board down
	// to its last pair can be unsolvable under any permutation, so the
	// loop also stops there.
	maxReshuffleAttempts = 100
)

// player is one roster entry. identity is the durable token presented by
// the client and survives transport loss, unlike the connection handle.
type player struct {
	identity  string
	name      string
	score     int
	connected bool
}

// room owns the authoritative board and roster for one session. All
// mutation happens through the session store under its lock.
type room struct {
	code       string
	host       string // identity of the host
	state      string // protocol.StateLobby / StateInProgress / StateEnded
	level      int    // collapse policy, 1..7
	players    map[string]*player
	timers     map[string]*graceTimer // identity -> armed disconnect timer
	board      *board.Board
	emptySince time.Time // set while the roster is empty, for the idle sweep
}

// graceTimer is the cancellable removal task armed when a player's
// transport drops. Cancel and fire are serialized by the store lock, so
// the finalize action runs at most once and never after a reconnect.
type graceTimer struct {
	timer    *time.Timer
	canceled bool
}

func (g *graceTimer) cancel() {
	g.canceled = true
	g.timer.Stop()
}
