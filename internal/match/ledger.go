package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/obslog"
	"github.com/park285/chessmatch/internal/rating"
)

// settlement is what a terminal transition did to the two profiles.
type settlement struct {
	matchID            string
	outcome            Outcome
	white, black       string
	whiteFrom, whiteTo int
	blackFrom, blackTo int
}

func (s *settlement) log() {
	if s == nil {
		return
	}
	obslog.L().Info("profile_settle",
		zap.String("match_id", s.matchID),
		zap.String("outcome", s.outcome.String()),
		zap.String("white", s.white),
		zap.Int("white_rating_before", s.whiteFrom),
		zap.Int("white_rating", s.whiteTo),
		zap.String("black", s.black),
		zap.Int("black_rating_before", s.blackFrom),
		zap.Int("black_rating", s.blackTo),
	)
}

// finish moves an active match to the terminal status of o and settles both profiles.
// Callers must have checked that g is active.
func finish(tx kv.Tx, g *Match, o Outcome, method Method) (*settlement, error) {
	g.Status = o.Status()
	g.Method = method
	g.DrawProposer = ""
	return settle(tx, g, o)
}

// settle applies the rating update and counters of a finished match to both profiles.
func settle(tx kv.Tx, g *Match, o Outcome) (*settlement, error) {
	white, err := loadProfile(tx, g.White)
	if err != nil {
		return nil, err
	}
	black, err := loadProfile(tx, g.Black)
	if err != nil {
		return nil, err
	}
	if white == nil || black == nil {
		return nil, fmt.Errorf("settle match %s: missing profile", g.ID)
	}
	s := &settlement{
		matchID: g.ID, outcome: o,
		white: white.Player, black: black.Player,
		whiteFrom: white.Rating, blackFrom: black.Rating,
	}

	switch o {
	case WhiteWins:
		white.Rating, black.Rating = rating.Update(white.Rating, black.Rating, false)
		white.Wins++
		black.Losses++
	case BlackWins:
		black.Rating, white.Rating = rating.Update(black.Rating, white.Rating, false)
		black.Wins++
		white.Losses++
	case Drawn:
		white.Rating, black.Rating = rating.Update(white.Rating, black.Rating, true)
		white.Draws++
		black.Draws++
	default:
		return nil, fmt.Errorf("settle match %s: unknown outcome %d", g.ID, o)
	}
	for _, p := range []*Profile{white, black} {
		p.GamesPlayed++
		p.removeGame(g.ID)
		if err := putProfile(tx, p); err != nil {
			return nil, err
		}
	}
	s.whiteTo, s.blackTo = white.Rating, black.Rating
	return s, nil
}
