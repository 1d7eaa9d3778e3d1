package position

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Square indexes the board from a1=0 to h8=63.
type Square int

// ParseSquare reads a two-character coordinate such as "e4".
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return Square(sq(int(s[0]-'a'), int(s[1]-'1'))), nil
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) String() string { return squareName(int(s)) }

func squareName(i int) string {
	return string([]byte{byte('a' + i%8), byte('1' + i/8)})
}

// Promotion is the piece a pawn becomes on the last rank.
type Promotion int

const (
	NoPromotion Promotion = iota
	Knight
	Bishop
	Rook
	Queen
)

// ParsePromotion accepts q, r, b or n in either case; empty means none.
func ParsePromotion(s string) (Promotion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return NoPromotion, nil
	case "q":
		return Queen, nil
	case "r":
		return Rook, nil
	case "b":
		return Bishop, nil
	case "n":
		return Knight, nil
	}
	return NoPromotion, fmt.Errorf("%w: %q", ErrBadPromotion, s)
}

func (p Promotion) String() string {
	switch p {
	case Queen:
		return "q"
	case Rook:
		return "r"
	case Bishop:
		return "b"
	case Knight:
		return "n"
	}
	return ""
}

func (p Promotion) pieceType() nchess.PieceType {
	switch p {
	case Queen:
		return nchess.Queen
	case Rook:
		return nchess.Rook
	case Bishop:
		return nchess.Bishop
	case Knight:
		return nchess.Knight
	}
	return nchess.NoPieceType
}

func promotionOf(t nchess.PieceType) Promotion {
	switch t {
	case nchess.Queen:
		return Queen
	case nchess.Rook:
		return Rook
	case nchess.Bishop:
		return Bishop
	case nchess.Knight:
		return Knight
	}
	return NoPromotion
}
