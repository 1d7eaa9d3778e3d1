package match

import (
	"context"

	"go.uber.org/zap"

	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/obslog"
	"github.com/park285/chessmatch/internal/position"
	"github.com/park285/chessmatch/internal/validator"
)

const (
	// clocks run once both sides have made their first move
	graceMoves     = 2
	earlyMoveLimit = 20

	earlyIncrement uint64 = 600
	lateIncrement  uint64 = 60
)

func increment(moveCount int) uint64 {
	if moveCount <= earlyMoveLimit {
		return earlyIncrement
	}
	return lateIncrement
}

func elapsedSince(last, now uint64) uint64 {
	if now < last {
		return 0
	}
	return now - last
}

// SubmitMove plays from -> to (with an optional promotion piece) for the caller.
//
// When the mover's clock has run out the match is committed as a timeout loss
// and the returned error is ErrTimeExpired together with the updated match.
func (m *Manager) SubmitMove(ctx context.Context, caller, id, from, to, promotion string, now uint64) (*Match, error) {
	var (
		g        *Match
		s        *settlement
		timedOut bool
		played   string
	)
	err := m.store.Update(ctx, func(tx kv.Tx) error {
		s, timedOut = nil, false
		cur, err := loadMatch(tx, id)
		if err != nil {
			return err
		}
		side, err := participant(cur, caller)
		if err != nil {
			return err
		}
		if err := requireActive(cur); err != nil {
			return err
		}
		if cur.Turn != side {
			return errorf(KindNotYourTurn, "match %s: %s to move", cur.ID, cur.Turn)
		}

		tracked := cur.MoveCount >= graceMoves
		if tracked {
			elapsed := elapsedSince(cur.LastMoveTick, now)
			remaining := cur.clock(side)
			if elapsed >= remaining {
				cur.setClock(side, 0)
				if s, err = finish(tx, cur, winFor(side.Opponent()), MethodTimeout); err != nil {
					return err
				}
				g, timedOut = cur, true
				return putMatch(tx, cur)
			}
			cur.setClock(side, remaining-elapsed)
		}

		res := validator.Validate(cur.FEN, from, to, promotion)
		if !res.Valid {
			return fromRules(res.Err)
		}
		played = res.Move.UCI()
		cur.Moves = append(cur.Moves, played)
		cur.FEN = res.FEN

		switch res.Position.Classify() {
		case position.Checkmate:
			s, err = finish(tx, cur, winFor(side), MethodCheckmate)
		case position.Stalemate:
			s, err = finish(tx, cur, Drawn, MethodStalemate)
		case position.Draw:
			s, err = finish(tx, cur, Drawn, MethodInsufficientMaterial)
		}
		if err != nil {
			return err
		}

		if cur.Status == StatusActive {
			if tracked {
				cur.setClock(side, cur.clock(side)+increment(cur.MoveCount))
			}
			// playing on lapses an offer made by the opponent
			if cur.DrawProposer != "" && cur.DrawProposer != caller {
				cur.DrawProposer = ""
			}
		}
		cur.MoveCount++
		cur.LastMoveTick = now
		if cur.Status == StatusActive {
			cur.Turn = side.Opponent()
		}
		g = cur
		return putMatch(tx, cur)
	})
	if err != nil {
		return nil, err
	}

	if timedOut {
		obslog.L().Info("match_timeout",
			zap.String("match_id", g.ID),
			zap.String("player", caller),
			zap.String("status", string(g.Status)),
			zap.Uint64("tick", now),
		)
		m.afterTerminal(ctx, g, s)
		return g, errorf(KindTimeExpired, "match %s: %s ran out of time", g.ID, caller)
	}

	obslog.L().Info("match_move",
		zap.String("match_id", g.ID),
		zap.String("player", caller),
		zap.String("move", played),
		zap.Int("move_count", g.MoveCount),
		zap.String("status", string(g.Status)),
		zap.Uint64("white_clock", g.WhiteClock),
		zap.Uint64("black_clock", g.BlackClock),
		zap.Uint64("tick", now),
	)
	if g.Status.Terminal() {
		m.afterTerminal(ctx, g, s)
	}
	return g, nil
}

// ClockStatus reports both clocks as they would stand at tick now, charging the
// elapsed time to the side to move. Nothing is written.
func (m *Manager) ClockStatus(ctx context.Context, id string, now uint64) (*ClockStatus, error) {
	g, err := m.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	elapsed := elapsedSince(g.LastMoveTick, now)
	cs := &ClockStatus{
		WhiteRemaining: g.WhiteClock,
		BlackRemaining: g.BlackClock,
		Turn:           g.Turn,
		MoveCount:      g.MoveCount,
		Elapsed:        elapsed,
	}
	if g.MoveCount >= graceMoves && g.Status == StatusActive {
		remaining := g.clock(g.Turn)
		if elapsed >= remaining {
			remaining = 0
		} else {
			remaining -= elapsed
		}
		if g.Turn == White {
			cs.WhiteRemaining = remaining
		} else {
			cs.BlackRemaining = remaining
		}
		cs.Expired = remaining == 0
	}
	return cs, nil
}
