package position

import (
	"fmt"
	"strings"
)

// board is a mailbox of piece letters indexed a1=0 .. h8=63; 0 marks an empty square.
type board [64]byte

func sq(file, rank int) int { return rank*8 + file }

func onBoard(file, rank int) bool { return file >= 0 && file < 8 && rank >= 0 && rank < 8 }

func isWhite(p byte) bool { return p >= 'A' && p <= 'Z' }

// parsePlacement reads the piece placement field of a FEN record.
func parsePlacement(field string) (board, error) {
	var b board
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return b, fmt.Errorf("expected 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for _, c := range []byte(row) {
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
			case strings.IndexByte("pnbrqkPNBRQK", c) >= 0:
				if file > 7 {
					return b, fmt.Errorf("rank %d overflows", rank+1)
				}
				b[sq(file, rank)] = c
				file++
			default:
				return b, fmt.Errorf("unexpected %q in placement", c)
			}
			if file > 8 {
				return b, fmt.Errorf("rank %d overflows", rank+1)
			}
		}
		if file != 8 {
			return b, fmt.Errorf("rank %d has %d files", rank+1, file)
		}
	}
	return b, nil
}

func (b *board) count(p byte) int {
	n := 0
	for _, c := range b {
		if c == p {
			n++
		}
	}
	return n
}

func (b *board) find(p byte) int {
	for i, c := range b {
		if c == p {
			return i
		}
	}
	return -1
}

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// attacked reports whether square s is attacked by any piece of the given side.
func (b *board) attacked(s int, byWhite bool) bool {
	file, rank := s%8, s/8
	own := func(p byte) byte {
		if byWhite {
			return p - 'a' + 'A'
		}
		return p
	}

	// pawns attack diagonally forward, so look one rank behind the target
	pawnRank := rank - 1
	if !byWhite {
		pawnRank = rank + 1
	}
	for _, df := range [2]int{-1, 1} {
		if onBoard(file+df, pawnRank) && b[sq(file+df, pawnRank)] == own('p') {
			return true
		}
	}
	for _, st := range knightSteps {
		f, r := file+st[0], rank+st[1]
		if onBoard(f, r) && b[sq(f, r)] == own('n') {
			return true
		}
	}
	for _, st := range kingSteps {
		f, r := file+st[0], rank+st[1]
		if onBoard(f, r) && b[sq(f, r)] == own('k') {
			return true
		}
	}
	if b.slides(file, rank, rookRays[:], own('r'), own('q')) {
		return true
	}
	return b.slides(file, rank, bishopRays[:], own('b'), own('q'))
}

func (b *board) slides(file, rank int, rays [][2]int, a, c byte) bool {
	for _, ray := range rays {
		f, r := file+ray[0], rank+ray[1]
		for onBoard(f, r) {
			p := b[sq(f, r)]
			if p != 0 {
				if p == a || p == c {
					return true
				}
				break
			}
			f += ray[0]
			r += ray[1]
		}
	}
	return false
}

// kingInCheck reports whether the king of the given side is attacked.
func (b *board) kingInCheck(white bool) bool {
	king := byte('k')
	if white {
		king = 'K'
	}
	s := b.find(king)
	if s < 0 {
		return false
	}
	return b.attacked(s, !white)
}
