package main

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Bakabot307/game/server/protocol"
)

// sessionStore is the single owner of every room, membership and live
// connection, plus the process-wide leaderboard. One mutex serializes all
// mutations, so each intent is handled as an atomic turn and commands for
// a room apply in transport-delivery order.
type sessionStore struct {
	mu          sync.Mutex
	rooms       map[string]*room
	memberships map[string]string          // identity -> room code
	conns       map[string]*websocket.Conn // identity -> live transport
	leaderboard map[string]int             // display name -> accumulated score
	rng         *rand.Rand
	now         func() time.Time

	grace       time.Duration
	idleTimeout time.Duration
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		rooms:       make(map[string]*room),
		memberships: make(map[string]string),
		conns:       make(map[string]*websocket.Conn),
		leaderboard: make(map[string]int),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		grace:       disconnectGrace,
		idleTimeout: idleRoomTimeout,
	}
}

// attach binds a connection to an identity and, when that identity is
// still a member of a room, resumes the membership in place.
func (s *sessionStore) attach(conn *websocket.Conn, identity, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.conns[identity]; ok && old != conn {
		old.Close()
	}
	s.conns[identity] = conn

	welcome := protocol.ServerMessage{Type: protocol.EventWelcome, Identity: identity}
	if code, ok := s.memberships[identity]; ok {
		if rm, ok := s.rooms[code]; ok {
			s.resumeLocked(rm, identity, name)
			welcome.Room = s.snapshotLocked(rm)
		}
	}
	s.sendLocked(identity, welcome)
}

// resumeLocked reactivates a member after a transport change. It is
// idempotent: resuming an already-connected member changes nothing.
func (s *sessionStore) resumeLocked(rm *room, identity, name string) {
	p, ok := rm.players[identity]
	if !ok {
		return
	}
	if name != "" && validName(name) {
		p.name = name
	}
	if p.connected {
		return
	}
	s.cancelRemovalLocked(rm, identity)
	p.connected = true
	log.Info().Str("room", rm.code).Str("identity", identity).Msg("player reconnected")
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type:   protocol.EventReconnected,
		Player: identity,
		Room:   s.snapshotLocked(rm),
	})
}

// drop handles transport loss. The room is not otherwise mutated: the
// player is only flagged disconnected and a grace timer is armed.
func (s *sessionStore) drop(conn *websocket.Conn, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conns[identity] != conn {
		return // a newer connection already took over this identity
	}
	delete(s.conns, identity)

	code, ok := s.memberships[identity]
	if !ok {
		return
	}
	rm, ok := s.rooms[code]
	if !ok {
		return
	}
	p, ok := rm.players[identity]
	if !ok || !p.connected {
		return
	}
	p.connected = false
	s.scheduleRemovalLocked(rm, identity)
	log.Info().Str("room", rm.code).Str("identity", identity).Msg("player disconnected, grace timer armed")
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type:   protocol.EventDisconnected,
		Player: identity,
		Room:   s.snapshotLocked(rm),
	})
}

// scheduleRemovalLocked arms the grace timer that finalizes a removal if
// the identity does not reclaim its seat in time. The fire action
// re-checks, under the lock, that this exact timer is still the armed one
// and the player is still disconnected.
func (s *sessionStore) scheduleRemovalLocked(rm *room, identity string) {
	if old, ok := rm.timers[identity]; ok {
		old.cancel()
	}
	g := &graceTimer{}
	g.timer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if g.canceled || rm.timers[identity] != g {
			return
		}
		delete(rm.timers, identity)
		if s.rooms[rm.code] != rm {
			return
		}
		p, ok := rm.players[identity]
		if !ok || p.connected {
			return
		}
		log.Info().Str("room", rm.code).Str("identity", identity).Msg("grace expired, removing player")
		s.removePlayerLocked(rm, identity)
	})
	rm.timers[identity] = g
}

func (s *sessionStore) cancelRemovalLocked(rm *room, identity string) {
	if g, ok := rm.timers[identity]; ok {
		g.cancel()
		delete(rm.timers, identity)
	}
}

// removePlayerLocked deletes a member for good. A departing host closes
// the whole room.
func (s *sessionStore) removePlayerLocked(rm *room, identity string) {
	s.cancelRemovalLocked(rm, identity)
	delete(rm.players, identity)
	delete(s.memberships, identity)

	if identity == rm.host {
		s.closeRoomLocked(rm)
		return
	}
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type:   protocol.EventPlayerLeft,
		Player: identity,
		Room:   s.snapshotLocked(rm),
	})
	if len(rm.players) == 0 {
		rm.emptySince = s.now()
	}
}

// closeRoomLocked broadcasts the closure once, clears every member's
// association to the room and deletes it from the registry.
func (s *sessionStore) closeRoomLocked(rm *room) {
	s.broadcastLocked(rm, protocol.ServerMessage{Type: protocol.EventRoomClosed})
	for identity := range rm.players {
		s.cancelRemovalLocked(rm, identity)
		delete(s.memberships, identity)
	}
	rm.players = make(map[string]*player)
	delete(s.rooms, rm.code)
	log.Info().Str("room", rm.code).Msg("room closed")
}

// sweepLoop garbage-collects rooms that sat empty past the idle
// threshold.
func (s *sessionStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.sweepIdle()
	}
}

func (s *sessionStore) sweepIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, rm := range s.rooms {
		if len(rm.players) == 0 && !rm.emptySince.IsZero() && s.now().Sub(rm.emptySince) > s.idleTimeout {
			delete(s.rooms, code)
			log.Info().Str("room", code).Msg("idle room swept")
		}
	}
}

// addScoreLocked accumulates into the cross-room leaderboard. It only
// ever grows for the lifetime of the process.
func (s *sessionStore) addScoreLocked(name string, points int) {
	s.leaderboard[name] += points
}

func (s *sessionStore) topScores(limit int) []protocol.ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]protocol.ScoreEntry, 0, len(s.leaderboard))
	for name, score := range s.leaderboard {
		entries = append(entries, protocol.ScoreEntry{Name: name, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score == entries[j].Score {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Score > entries[j].Score
	})
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

func (s *sessionStore) listRooms() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]map[string]any, 0, len(s.rooms))
	for _, rm := range s.rooms {
		rooms = append(rooms, map[string]any{
			"code":        rm.code,
			"state":       rm.state,
			"level":       rm.level,
			"playerCount": len(rm.players),
		})
	}
	return rooms
}
