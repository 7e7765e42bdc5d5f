package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Bakabot307/game/server/board"
	"github.com/Bakabot307/game/server/protocol"
)

// submitMoveLocked runs the full move transaction: validate, collapse,
// score, then detect clear or deadlock. Every precondition failure
// rejects the whole transaction without touching the board.
func (s *sessionStore) submitMoveLocked(identity, code string, a, b *board.Pos) *protocol.Ack {
	rm, p, bad := s.memberRoomLocked(identity, code)
	if bad != nil {
		return bad
	}
	if rm.state != protocol.StateInProgress {
		return fail("", protocol.FailInvalidState, "game is not in progress")
	}
	if rm.board.IsCleared() {
		return fail("", protocol.FailInvalidState, "board is already cleared")
	}
	if a == nil || b == nil || !rm.board.Interior(*a) || !rm.board.Interior(*b) {
		return fail("", protocol.FailInvalidInput, "positions must be interior cells")
	}
	if *a == *b {
		return fail("", protocol.FailInvalidInput, "positions must differ")
	}
	va, vb := rm.board.At(*a), rm.board.At(*b)
	if va == board.Empty || vb == board.Empty || va != vb {
		return fail("", protocol.FailNotMatchable, "tiles are empty or differ")
	}
	path := rm.board.FindPath(*a, *b, board.MaxTurns)
	if path == nil {
		return fail("", protocol.FailNoPath, "no connection within two turns")
	}

	rm.board.Collapse(rm.level, *a, *b)
	p.score += scoreAward
	s.addScoreLocked(p.name, scoreAward)

	switch {
	case rm.board.IsCleared():
		rm.state = protocol.StateEnded
		rm.level = rm.level%board.LevelCount + 1
		log.Info().Str("room", rm.code).Str("identity", identity).Int("nextLevel", rm.level).Msg("board cleared")
		s.broadcastLocked(rm, protocol.ServerMessage{
			Type: protocol.EventGameEnded,
			Room: s.snapshotLocked(rm),
		})
	case !rm.board.HasAnyMove():
		// Deadlock: reshuffle in place, preserving the remaining values
		// and their footprint, until a move exists again. A board down to
		// its final pair may stay unsolvable; that is the only state the
		// loop gives up on.
		for i := 0; i < maxReshuffleAttempts; i++ {
			rm.board.Reshuffle(s.rng)
			if rm.board.HasAnyMove() || rm.board.Remaining() <= 2 {
				break
			}
		}
		log.Info().Str("room", rm.code).Int("remaining", rm.board.Remaining()).Msg("deadlock broken by reshuffle")
		s.broadcastLocked(rm, protocol.ServerMessage{
			Type: protocol.EventReshuffled,
			Room: s.snapshotLocked(rm),
		})
	default:
		s.broadcastLocked(rm, protocol.ServerMessage{
			Type: protocol.EventRoomState,
			Room: s.snapshotLocked(rm),
		})
	}

	res := ok("")
	res.Path = path
	return res
}
