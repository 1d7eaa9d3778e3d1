package match

import (
	"context"

	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/position"
	"github.com/park285/chessmatch/internal/validator"
)

// VerifyPosition classifies an arbitrary position and lists its legal moves.
func (m *Manager) VerifyPosition(fen string) (*Verification, error) {
	p, err := position.Parse(fen)
	if err != nil {
		return nil, fromRules(err)
	}
	moves := p.LegalMoves()
	v := &Verification{
		Status:        p.Classify().String(),
		Check:         p.InCheck(),
		LegalMoves:    make([]string, 0, len(moves)),
		LegalMovesUCI: make([]string, 0, len(moves)),
	}
	for _, mv := range moves {
		v.LegalMoves = append(v.LegalMoves, p.SAN(mv))
		v.LegalMovesUCI = append(v.LegalMovesUCI, mv.UCI())
	}
	return v, nil
}

// VerifyClaim checks a claimed classification label against the position.
func (m *Manager) VerifyClaim(fen, claimed string) (*Verification, error) {
	want, err := position.ParseStatus(claimed)
	if err != nil {
		return nil, errorf(KindBadStatus, "%v", err)
	}
	v, err := m.VerifyPosition(fen)
	if err != nil {
		return nil, err
	}
	if v.Status != want.String() {
		return v, errorf(KindClaimMismatch, "claimed %s, actual %s", want, v.Status)
	}
	return v, nil
}

// ValidateMove checks a move against a position without touching any match.
func (m *Manager) ValidateMove(fen, from, to, promotion string) MoveCheck {
	res := validator.Validate(fen, from, to, promotion)
	if !res.Valid {
		return MoveCheck{Err: fromRules(res.Err)}
	}
	return MoveCheck{Valid: true, FEN: res.FEN}
}

func (m *Manager) GetMatch(ctx context.Context, id string) (*Match, error) {
	var g *Match
	err := m.store.View(ctx, func(tx kv.Tx) error {
		var err error
		g, err = loadMatch(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// MatchIDs lists every match id in ascending order.
func (m *Manager) MatchIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := m.store.View(ctx, func(tx kv.Tx) error {
		keys, err := tx.Keys(matchBucket)
		if err != nil {
			return err
		}
		ids = idsFromKeys(keys, matchBucket)
		return nil
	})
	return ids, err
}

// MatchesForPlayer returns every match the player takes part in, ordered by id.
func (m *Manager) MatchesForPlayer(ctx context.Context, player string) ([]*Match, error) {
	var out []*Match
	err := m.store.View(ctx, func(tx kv.Tx) error {
		out = []*Match{}
		keys, err := tx.Keys(matchBucket)
		if err != nil {
			return err
		}
		for _, id := range idsFromKeys(keys, matchBucket) {
			g, err := loadMatch(tx, id)
			if err != nil {
				return err
			}
			if g.White == player || g.Black == player {
				out = append(out, g)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) GetProfile(ctx context.Context, player string) (*Profile, error) {
	var p *Profile
	err := m.store.View(ctx, func(tx kv.Tx) error {
		var err error
		p, err = loadProfile(tx, player)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errorf(KindNotFound, "profile %s", player)
	}
	return p, nil
}

// Players lists every player with a profile in ascending order.
func (m *Manager) Players(ctx context.Context) ([]string, error) {
	var players []string
	err := m.store.View(ctx, func(tx kv.Tx) error {
		keys, err := tx.Keys(profileBucket)
		if err != nil {
			return err
		}
		players = idsFromKeys(keys, profileBucket)
		return nil
	})
	return players, err
}
