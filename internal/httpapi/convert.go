package httpapi

import (
	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/pkg/matchdto"
)

func matchState(g *match.Match) *matchdto.MatchState {
	if g == nil {
		return nil
	}
	moves := g.Moves
	if moves == nil {
		moves = []string{}
	}
	return &matchdto.MatchState{
		ID:           g.ID,
		White:        g.White,
		Black:        g.Black,
		Moves:        moves,
		FEN:          g.FEN,
		Status:       string(g.Status),
		Method:       string(g.Method),
		Turn:         string(g.Turn),
		WhiteClock:   g.WhiteClock,
		BlackClock:   g.BlackClock,
		MoveCount:    g.MoveCount,
		CreatedTick:  g.CreatedTick,
		LastMoveTick: g.LastMoveTick,
		TimeControl:  g.TimeControl,
		DrawProposer: g.DrawProposer,
	}
}

func profileState(p *match.Profile) *matchdto.ProfileState {
	games := p.CurrentGames
	if games == nil {
		games = []string{}
	}
	return &matchdto.ProfileState{
		Player:       p.Player,
		Name:         p.Name,
		Rating:       p.Rating,
		GamesPlayed:  p.GamesPlayed,
		Wins:         p.Wins,
		Losses:       p.Losses,
		Draws:        p.Draws,
		CurrentGames: games,
		CreatedTick:  p.CreatedTick,
	}
}

func clockState(c *match.ClockStatus) *matchdto.ClockState {
	return &matchdto.ClockState{
		WhiteRemaining: c.WhiteRemaining,
		BlackRemaining: c.BlackRemaining,
		Turn:           string(c.Turn),
		Expired:        c.Expired,
		MoveCount:      c.MoveCount,
		Elapsed:        c.Elapsed,
	}
}

func verification(v *match.Verification) *matchdto.Verification {
	return &matchdto.Verification{
		Status:        v.Status,
		Check:         v.Check,
		LegalMoves:    v.LegalMoves,
		LegalMovesUCI: v.LegalMovesUCI,
	}
}
