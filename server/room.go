package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Bakabot307/game/server/board"
	"github.com/Bakabot307/game/server/protocol"
)

// handleIntent applies one client intent as a single atomic turn and
// returns the synchronous ack for the issuing connection. Broadcasts for
// any resulting state change are emitted before the lock is released.
func (s *sessionStore) handleIntent(identity string, msg protocol.ClientMessage) *protocol.Ack {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ack *protocol.Ack
	switch msg.Type {
	case protocol.IntentCreateRoom:
		ack = s.createRoomLocked(identity, msg.Name, msg.DesiredCode)
	case protocol.IntentJoinRoom:
		ack = s.joinRoomLocked(identity, msg.RoomCode, msg.Name)
	case protocol.IntentLeaveRoom:
		ack = s.leaveRoomLocked(identity, msg.RoomCode)
	case protocol.IntentStartGame:
		ack = s.startGameLocked(identity, msg.RoomCode)
	case protocol.IntentEndGame:
		ack = s.endGameLocked(identity, msg.RoomCode)
	case protocol.IntentRestartGame:
		ack = s.restartGameLocked(identity, msg.RoomCode)
	case protocol.IntentCloseRoom:
		ack = s.closeRoomIntentLocked(identity, msg.RoomCode)
	case protocol.IntentSetLevel:
		ack = s.setLevelLocked(identity, msg.RoomCode, msg.Level)
	case protocol.IntentSubmitMove:
		ack = s.submitMoveLocked(identity, msg.RoomCode, msg.A, msg.B)
	case protocol.IntentRemovePlayer:
		ack = s.removePlayerIntentLocked(identity, msg.RoomCode, msg.Target)
	default:
		ack = fail(msg.Type, protocol.FailInvalidInput, "unknown intent")
	}
	ack.Intent = msg.Type
	s.sendLocked(identity, protocol.ServerMessage{Type: protocol.EventAck, Ack: ack})
	return ack
}

func ok(intent string) *protocol.Ack { return &protocol.Ack{Intent: intent, OK: true} }

func fail(intent string, kind protocol.FailKind, reason string) *protocol.Ack {
	return &protocol.Ack{Intent: intent, Kind: kind, Reason: reason}
}

// memberRoomLocked resolves the room an intent addresses and checks the
// issuer is one of its players.
func (s *sessionStore) memberRoomLocked(identity, code string) (*room, *player, *protocol.Ack) {
	rm, exists := s.rooms[code]
	if !exists {
		return nil, nil, fail("", protocol.FailNotFound, "room not found")
	}
	p, member := rm.players[identity]
	if !member {
		return nil, nil, fail("", protocol.FailNotFound, "not a player in this room")
	}
	return rm, p, nil
}

// hostRoomLocked additionally requires the issuer to be the host.
func (s *sessionStore) hostRoomLocked(identity, code string) (*room, *protocol.Ack) {
	rm, _, bad := s.memberRoomLocked(identity, code)
	if bad != nil {
		return nil, bad
	}
	if rm.host != identity {
		return nil, fail("", protocol.FailUnauthorized, "host only")
	}
	return rm, nil
}

func (s *sessionStore) createRoomLocked(identity, name, desired string) *protocol.Ack {
	if !validName(name) {
		return fail("", protocol.FailInvalidInput, "display name must be 1-32 characters")
	}
	if _, member := s.memberships[identity]; member {
		return fail("", protocol.FailInvalidState, "already in a room")
	}
	code := desired
	if code != "" {
		if !roomCodePattern.MatchString(code) {
			return fail("", protocol.FailInvalidInput, "room code must match [A-Z0-9]{3,12}")
		}
		if _, taken := s.rooms[code]; taken {
			return fail("", protocol.FailInvalidInput, "room code already in use")
		}
	} else {
		for {
			code = generateRoomCode()
			if _, taken := s.rooms[code]; !taken {
				break
			}
		}
	}

	rm := &room{
		code:    code,
		host:    identity,
		state:   protocol.StateLobby,
		level:   board.LevelPlain,
		players: make(map[string]*player),
		timers:  make(map[string]*graceTimer),
		board:   board.Generate(s.rng),
	}
	rm.players[identity] = &player{identity: identity, name: name, connected: true}
	s.rooms[code] = rm
	s.memberships[identity] = code

	log.Info().Str("room", code).Str("identity", identity).Str("name", name).Msg("room created")
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type:   protocol.EventPlayerJoined,
		Player: identity,
		Room:   s.snapshotLocked(rm),
	})
	return ok("")
}

func (s *sessionStore) joinRoomLocked(identity, code, name string) *protocol.Ack {
	rm, exists := s.rooms[code]
	if !exists {
		return fail("", protocol.FailNotFound, "room not found")
	}
	if prev, member := s.memberships[identity]; member {
		if prev != code {
			return fail("", protocol.FailInvalidState, "already in another room")
		}
		// Same identity, same room: a reconnect, not a second join.
		s.resumeLocked(rm, identity, name)
		return ok("")
	}
	if !validName(name) {
		return fail("", protocol.FailInvalidInput, "display name must be 1-32 characters")
	}

	rm.players[identity] = &player{identity: identity, name: name, connected: true}
	rm.emptySince = time.Time{}
	s.memberships[identity] = code

	log.Info().Str("room", code).Str("identity", identity).Str("name", name).Msg("player joined")
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type:   protocol.EventPlayerJoined,
		Player: identity,
		Room:   s.snapshotLocked(rm),
	})
	return ok("")
}

func (s *sessionStore) leaveRoomLocked(identity, code string) *protocol.Ack {
	rm, _, bad := s.memberRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	// Explicit leave removes immediately, grace period or not; a leaving
	// host always closes the room.
	log.Info().Str("room", code).Str("identity", identity).Msg("player left")
	s.removePlayerLocked(rm, identity)
	return ok("")
}

func (s *sessionStore) startGameLocked(identity, code string) *protocol.Ack {
	rm, bad := s.hostRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	if rm.state == protocol.StateInProgress {
		return fail("", protocol.FailInvalidState, "game already in progress")
	}
	s.freshGameLocked(rm)
	log.Info().Str("room", code).Int("level", rm.level).Msg("game started")
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type: protocol.EventGameStarted,
		Room: s.snapshotLocked(rm),
	})
	return ok("")
}

func (s *sessionStore) restartGameLocked(identity, code string) *protocol.Ack {
	rm, bad := s.hostRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	if rm.state == protocol.StateLobby {
		return fail("", protocol.FailInvalidState, "game has not been started")
	}
	s.freshGameLocked(rm)
	log.Info().Str("room", code).Int("level", rm.level).Msg("game restarted")
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type: protocol.EventGameRestarted,
		Room: s.snapshotLocked(rm),
	})
	return ok("")
}

// freshGameLocked regenerates the board (re-rolled until it opens with at
// least one legal move), resets every score and keeps the level.
func (s *sessionStore) freshGameLocked(rm *room) {
	rm.board = board.Generate(s.rng)
	for i := 0; i < maxReshuffleAttempts && !rm.board.HasAnyMove(); i++ {
		rm.board.Reshuffle(s.rng)
	}
	for _, p := range rm.players {
		p.score = 0
	}
	rm.state = protocol.StateInProgress
}

func (s *sessionStore) endGameLocked(identity, code string) *protocol.Ack {
	rm, bad := s.hostRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	if rm.state != protocol.StateInProgress {
		return fail("", protocol.FailInvalidState, "no game in progress")
	}
	rm.state = protocol.StateEnded
	log.Info().Str("room", code).Msg("game ended by host")
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type: protocol.EventGameEnded,
		Room: s.snapshotLocked(rm),
	})
	return ok("")
}

func (s *sessionStore) closeRoomIntentLocked(identity, code string) *protocol.Ack {
	rm, bad := s.hostRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	s.closeRoomLocked(rm)
	return ok("")
}

func (s *sessionStore) setLevelLocked(identity, code string, level int) *protocol.Ack {
	rm, bad := s.hostRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	if !board.ValidLevel(level) {
		return fail("", protocol.FailInvalidInput, fmt.Sprintf("level must be 1..%d", board.LevelCount))
	}
	rm.level = level
	s.broadcastLocked(rm, protocol.ServerMessage{
		Type: protocol.EventRoomState,
		Room: s.snapshotLocked(rm),
	})
	return ok("")
}

func (s *sessionStore) removePlayerIntentLocked(identity, code, target string) *protocol.Ack {
	rm, bad := s.hostRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	if target == rm.host {
		return fail("", protocol.FailInvalidInput, "host cannot remove themselves; close the room instead")
	}
	if _, member := rm.players[target]; !member {
		return fail("", protocol.FailNotFound, "player not in room")
	}
	log.Info().Str("room", code).Str("identity", target).Msg("player removed by host")
	s.removePlayerLocked(rm, target)
	return ok("")
}
