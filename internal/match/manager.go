// Package match runs chess matches between two players: move submission with
// clocks, resignation, draw offers, status overrides and the profile ledger.
// Every mutating operation is one store transaction over the match and both profiles.
package match

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/obslog"
	"github.com/park285/chessmatch/internal/position"
)

// DefaultInitialClock is each side's starting budget in ticks (two days at one tick per second).
const DefaultInitialClock uint64 = 172_800

// Config sets the clock budgets. TimeControls maps a time-control label to an
// initial budget; labels match case-insensitively and unknown labels get InitialClock.
type Config struct {
	InitialClock uint64
	TimeControls map[string]uint64
}

func controlKey(label string) string { return strings.ToLower(strings.TrimSpace(label)) }

func (c Config) budget(label string) uint64 {
	if v, ok := c.TimeControls[controlKey(label)]; ok && v > 0 {
		return v
	}
	return c.InitialClock
}

// Archiver receives every match that reached a terminal status.
type Archiver interface {
	SaveResult(ctx context.Context, g *Match) error
}

type Manager struct {
	store   kv.Store
	cfg     Config
	archive Archiver
	newID   func() string
}

func NewManager(store kv.Store, cfg Config) *Manager {
	if cfg.InitialClock == 0 {
		cfg.InitialClock = DefaultInitialClock
	}
	controls := make(map[string]uint64, len(cfg.TimeControls))
	for label, v := range cfg.TimeControls {
		controls[controlKey(label)] = v
	}
	cfg.TimeControls = controls
	return &Manager{store: store, cfg: cfg, newID: uuid.NewString}
}

// AttachArchive wires a result archive for finished matches.
func (m *Manager) AttachArchive(a Archiver) {
	if m != nil {
		m.archive = a
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

func participant(g *Match, caller string) (Color, error) {
	side, ok := g.Side(caller)
	if !ok {
		return "", errorf(KindNotParticipant, "%s is not playing match %s", caller, g.ID)
	}
	return side, nil
}

func requireActive(g *Match) error {
	if g.Status != StatusActive {
		return errorf(KindGameNotActive, "match %s is %s", g.ID, g.Status)
	}
	return nil
}

// InitializeProfile creates the caller's profile if needed and sets its display
// name when name is not empty.
func (m *Manager) InitializeProfile(ctx context.Context, caller, name string, now uint64) (*Profile, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return nil, errorf(KindInvalidArgument, "player id required")
	}
	var (
		out     *Profile
		created bool
	)
	err := m.store.Update(ctx, func(tx kv.Tx) error {
		p, c, err := ensureProfile(tx, caller, now)
		if err != nil {
			return err
		}
		if n := strings.TrimSpace(name); n != "" {
			p.Name = n
		}
		out, created = p, c
		return putProfile(tx, p)
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("profile_init",
		zap.String("player", caller),
		zap.String("name", out.Name),
		zap.Bool("created", created),
		zap.Uint64("tick", now),
	)
	return out, nil
}

// CreateMatch starts a match with the caller as white. An empty id gets a generated one.
func (m *Manager) CreateMatch(ctx context.Context, caller, id, opponent, timeControl string, now uint64) (*Match, error) {
	caller, opponent = strings.TrimSpace(caller), strings.TrimSpace(opponent)
	id = strings.TrimSpace(id)
	if caller == "" || opponent == "" {
		return nil, errorf(KindInvalidArgument, "both players required")
	}
	if caller == opponent {
		return nil, errorf(KindInvalidArgument, "cannot play against yourself")
	}
	if id == "" {
		id = m.newID()
	}
	budget := m.cfg.budget(timeControl)

	var g *Match
	err := m.store.Update(ctx, func(tx kv.Tx) error {
		exists, err := tx.Has(matchKey(id))
		if err != nil {
			return err
		}
		if exists {
			return errorf(KindGameAlreadyExists, "match %s", id)
		}
		for _, player := range []string{caller, opponent} {
			p, _, err := ensureProfile(tx, player, now)
			if err != nil {
				return err
			}
			p.addGame(id)
			if err := putProfile(tx, p); err != nil {
				return err
			}
		}
		g = &Match{
			ID:           id,
			White:        caller,
			Black:        opponent,
			Moves:        []string{},
			FEN:          position.StartFEN,
			Status:       StatusActive,
			Turn:         White,
			WhiteClock:   budget,
			BlackClock:   budget,
			CreatedTick:  now,
			LastMoveTick: now,
			TimeControl:  strings.TrimSpace(timeControl),
		}
		return putMatch(tx, g)
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_create",
		zap.String("match_id", g.ID),
		zap.String("white", g.White),
		zap.String("black", g.Black),
		zap.String("time_control", g.TimeControl),
		zap.Uint64("clock", budget),
		zap.Uint64("tick", now),
	)
	return g, nil
}

// Resign ends the match as a win for the caller's opponent.
func (m *Manager) Resign(ctx context.Context, caller, id string, now uint64) (*Match, error) {
	var (
		g *Match
		s *settlement
	)
	err := m.store.Update(ctx, func(tx kv.Tx) error {
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
		if s, err = finish(tx, cur, winFor(side.Opponent()), MethodResignation); err != nil {
			return err
		}
		g = cur
		return putMatch(tx, cur)
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_resign",
		zap.String("match_id", g.ID),
		zap.String("player", caller),
		zap.String("status", string(g.Status)),
		zap.Uint64("tick", now),
	)
	m.afterTerminal(ctx, g, s)
	return g, nil
}

// OverrideStatus forces a status label onto an active match. Setting a terminal
// status settles the profiles; a label equal to the current status is a no-op.
func (m *Manager) OverrideStatus(ctx context.Context, caller, id, label string, now uint64) (*Match, error) {
	var (
		g       *Match
		s       *settlement
		changed bool
	)
	err := m.store.Update(ctx, func(tx kv.Tx) error {
		changed = false
		cur, err := loadMatch(tx, id)
		if err != nil {
			return err
		}
		if _, err := participant(cur, caller); err != nil {
			return err
		}
		status, err := ParseStatus(label)
		if err != nil {
			return errorf(KindBadStatus, "%v", err)
		}
		g = cur
		if status == cur.Status {
			return nil
		}
		if cur.Status.Terminal() {
			return errorf(KindGameNotActive, "match %s is already %s", cur.ID, cur.Status)
		}
		o, _ := outcomeOf(status)
		if s, err = finish(tx, cur, o, MethodAdjudication); err != nil {
			return err
		}
		changed = true
		return putMatch(tx, cur)
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_override",
		zap.String("match_id", g.ID),
		zap.String("player", caller),
		zap.String("status", string(g.Status)),
		zap.Bool("changed", changed),
		zap.Uint64("tick", now),
	)
	if changed {
		m.afterTerminal(ctx, g, s)
	}
	return g, nil
}

// ProposeDraw records the caller as the pending draw proposer, replacing an
// offer from the opponent.
func (m *Manager) ProposeDraw(ctx context.Context, caller, id string, now uint64) (*Match, error) {
	var g *Match
	err := m.store.Update(ctx, func(tx kv.Tx) error {
		cur, err := loadMatch(tx, id)
		if err != nil {
			return err
		}
		if _, err := participant(cur, caller); err != nil {
			return err
		}
		if err := requireActive(cur); err != nil {
			return err
		}
		if cur.DrawProposer == caller {
			return errorf(KindDrawAlreadyProposed, "match %s", cur.ID)
		}
		cur.DrawProposer = caller
		g = cur
		return putMatch(tx, cur)
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_draw_propose",
		zap.String("match_id", g.ID),
		zap.String("player", caller),
		zap.Uint64("tick", now),
	)
	return g, nil
}

// RespondDraw accepts or declines the opponent's pending draw offer.
func (m *Manager) RespondDraw(ctx context.Context, caller, id string, accept bool, now uint64) (*Match, error) {
	var (
		g *Match
		s *settlement
	)
	err := m.store.Update(ctx, func(tx kv.Tx) error {
		s = nil
		cur, err := loadMatch(tx, id)
		if err != nil {
			return err
		}
		if _, err := participant(cur, caller); err != nil {
			return err
		}
		if err := requireActive(cur); err != nil {
			return err
		}
		switch cur.DrawProposer {
		case "":
			return errorf(KindNoDrawProposal, "match %s", cur.ID)
		case caller:
			return errorf(KindCannotRespondToOwnProposal, "match %s", cur.ID)
		}
		if accept {
			if s, err = finish(tx, cur, Drawn, MethodAgreement); err != nil {
				return err
			}
		} else {
			cur.DrawProposer = ""
		}
		g = cur
		return putMatch(tx, cur)
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_draw_respond",
		zap.String("match_id", g.ID),
		zap.String("player", caller),
		zap.Bool("accept", accept),
		zap.String("status", string(g.Status)),
		zap.Uint64("tick", now),
	)
	if accept {
		m.afterTerminal(ctx, g, s)
	}
	return g, nil
}

// 종료 상태 전이가 커밋된 뒤 한 번만 호출.
func (m *Manager) afterTerminal(ctx context.Context, g *Match, s *settlement) {
	s.log()
	m.persistIfFinal(ctx, g)
}

// persistIfFinal은 아카이브가 연결된 경우 종료된 대국을 저장한다.
// 저장 실패는 로그만 남기며 이미 커밋된 전이는 유지.
func (m *Manager) persistIfFinal(ctx context.Context, g *Match) {
	if m.archive == nil || g == nil || !g.Status.Terminal() {
		return
	}
	if err := m.archive.SaveResult(ctx, g); err != nil {
		obslog.L().Error("match_archive_error",
			zap.String("match_id", g.ID),
			zap.String("status", string(g.Status)),
			zap.Error(err),
		)
		return
	}
	obslog.L().Info("match_archive",
		zap.String("match_id", g.ID),
		zap.String("status", string(g.Status)),
		zap.String("method", string(g.Method)),
	)
}
