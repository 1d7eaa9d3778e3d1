package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/chessmatch/internal/position"
)

func TestValidate_Accepts(t *testing.T) {
	r := Validate(position.StartFEN, "e2", "e4", "")
	require.True(t, r.Valid, "err=%v", r.Err)
	require.NoError(t, r.Err)
	require.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", r.FEN)
	require.Equal(t, "e2e4", r.Move.UCI())
}

func TestValidate_RejectionOrder(t *testing.T) {
	cases := []struct {
		name                string
		fen, from, to, prom string
		want                error
	}{
		{"parse wins over squares", "bogus", "z9", "z9", "k", position.ErrParse},
		{"bad source square", position.StartFEN, "z9", "e4", "k", position.ErrBadSquare},
		{"bad target square", position.StartFEN, "e2", "e0", "k", position.ErrBadSquare},
		{"bad promotion before empty source", position.StartFEN, "e4", "e5", "k", position.ErrBadPromotion},
		{"empty source", position.StartFEN, "e4", "e5", "", ErrNoPieceAtSource},
		{"illegal", position.StartFEN, "e2", "e5", "", ErrIllegalMove},
		{"opponent piece", position.StartFEN, "e7", "e5", "", ErrIllegalMove},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Validate(tc.fen, tc.from, tc.to, tc.prom)
			require.False(t, r.Valid)
			require.Empty(t, r.FEN)
			require.ErrorIs(t, r.Err, tc.want)
		})
	}
}

func TestValidate_PromotionCaseInsensitive(t *testing.T) {
	r := Validate("8/4P3/8/8/8/2k5/8/4K3 w - - 0 1", "e7", "e8", "Q")
	require.True(t, r.Valid, "err=%v", r.Err)
	require.Equal(t, "4Q3/8/8/8/8/2k5/8/4K3 b - - 0 1", r.FEN)
}

func TestValidate_Castling(t *testing.T) {
	r := Validate("r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8", "c8", "")
	require.True(t, r.Valid, "err=%v", r.Err)
	require.Equal(t, "2kr3r/8/8/8/8/8/8/R3K2R w KQ - 1 2", r.FEN)
}
