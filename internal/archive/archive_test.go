package archive

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/position"
)

func TestResultToken(t *testing.T) {
	require.Equal(t, "1-0", ResultToken(match.StatusWhiteWon))
	require.Equal(t, "0-1", ResultToken(match.StatusBlackWon))
	require.Equal(t, "1/2-1/2", ResultToken(match.StatusDraw))
	require.Equal(t, "*", ResultToken(match.StatusActive))
}

func TestBuildPGN_FoolsMate(t *testing.T) {
	g := &match.Match{
		ID:          "g1",
		White:       `al"ice`,
		Black:       "bob",
		Moves:       []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		Status:      match.StatusBlackWon,
		Method:      match.MethodCheckmate,
		TimeControl: "daily",
	}
	san, err := position.Notate(position.StartFEN, g.Moves)
	require.NoError(t, err)

	want := "[Event \"chessmatch\"]\n" +
		"[Round \"g1\"]\n" +
		"[White \"al'ice\"]\n" +
		"[Black \"bob\"]\n" +
		"[TimeControl \"daily\"]\n" +
		"[Termination \"checkmate\"]\n" +
		"[Result \"0-1\"]\n\n" +
		"1. f3 e5 2. g4 Qh4# 0-1"
	require.Equal(t, want, BuildPGN(g, san))
}

func TestBuildPGN_OddMoveCountAndNoMethod(t *testing.T) {
	g := &match.Match{ID: "g2", White: "a", Black: "b", Status: match.StatusDraw, Method: match.MethodAgreement}
	pgn := BuildPGN(g, []string{"e4"})
	require.Contains(t, pgn, "[Termination \"agreement\"]\n")
	require.NotContains(t, pgn, "TimeControl")
	require.Contains(t, pgn, "\n\n1. e4 1/2-1/2")

	require.Empty(t, BuildPGN(nil, nil))
}

func TestSaveResult_IgnoresActiveAndNil(t *testing.T) {
	var r *Repository
	require.NoError(t, r.SaveResult(context.Background(), &match.Match{Status: match.StatusWhiteWon}))

	r = &Repository{}
	require.NoError(t, r.SaveResult(context.Background(), &match.Match{Status: match.StatusActive}))
}

// Runs against a real database when CHESSMATCH_TEST_DATABASE_URL is set.
func TestSaveResult_Postgres(t *testing.T) {
	url := os.Getenv("CHESSMATCH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CHESSMATCH_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	r, err := Open(ctx, url)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.EnsureSchema(ctx))

	g := &match.Match{
		ID: "archive-test", White: "a", Black: "b",
		Moves: []string{"e2e4"}, FEN: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		Status: match.StatusWhiteWon, Method: match.MethodResignation, MoveCount: 1,
	}
	require.NoError(t, r.SaveResult(ctx, g))
	require.NoError(t, r.SaveResult(ctx, g), "upsert is idempotent")

	var pgn string
	require.NoError(t, r.db.QueryRowContext(ctx, `SELECT pgn FROM match_results WHERE match_id=$1`, g.ID).Scan(&pgn))
	require.Contains(t, pgn, "1. e4 1-0")
}

func TestOpen_RequiresURL(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}
