package position

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// Move is a legal move in the position it was generated from.
type Move struct {
	mv nchess.Move
}

func (m Move) From() Square { return Square(m.mv.S1()) }
func (m Move) To() Square   { return Square(m.mv.S2()) }

func (m Move) Promotion() Promotion { return promotionOf(m.mv.Promo()) }

// UCI renders the move in coordinate notation, e.g. "e7e8q".
func (m Move) UCI() string {
	return m.From().String() + m.To().String() + m.Promotion().String()
}

func (m Move) String() string { return m.UCI() }

// LegalMoves lists every legal move for the side to move.
func (p *Position) LegalMoves() []Move {
	valid := p.pos.ValidMoves()
	out := make([]Move, 0, len(valid))
	for _, mv := range valid {
		out = append(out, Move{mv: mv})
	}
	return out
}

// Find returns the legal move matching the coordinates, if any.
func (p *Position) Find(from, to Square, promo Promotion) (Move, bool) {
	want := promo.pieceType()
	for _, mv := range p.pos.ValidMoves() {
		if int(mv.S1()) == int(from) && int(mv.S2()) == int(to) && mv.Promo() == want {
			return Move{mv: mv}, true
		}
	}
	return Move{}, false
}

// Apply plays a legal move and returns the resulting position; p is unchanged.
func (p *Position) Apply(m Move) *Position {
	mv := m.mv
	next := p.pos.Update(&mv)
	b, err := parsePlacement(placementOf(next.String()))
	if err != nil {
		panic(fmt.Sprintf("position: rules library produced %q: %v", next.String(), err))
	}
	ep := "-"
	from, to := m.From(), m.To()
	if p.pos.Board().Piece(nchess.Square(from)).Type() == nchess.Pawn && abs(to.Rank()-from.Rank()) == 2 {
		ep = squareName(sq(from.File(), (from.Rank()+to.Rank())/2))
	}
	return &Position{pos: next, board: b, white: !p.white, ep: ep}
}

// SAN renders a legal move in standard algebraic notation.
func (p *Position) SAN(m Move) string {
	mv := m.mv
	return nchess.AlgebraicNotation{}.Encode(p.pos, &mv)
}

// Notate replays coordinate moves from a starting record and returns them in SAN.
// It stops with an error at the first move that is not legal.
func Notate(fen string, moves []string) ([]string, error) {
	p, err := Parse(fen)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(moves))
	for i, raw := range moves {
		m, err := p.ParseUCI(raw)
		if err != nil {
			return out, fmt.Errorf("move %d: %w", i+1, err)
		}
		out = append(out, p.SAN(m))
		p = p.Apply(m)
	}
	return out, nil
}

// ParseUCI resolves a coordinate move string against the legal moves.
func (p *Position) ParseUCI(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	promo, err := ParsePromotion(s[4:])
	if err != nil {
		return Move{}, err
	}
	m, ok := p.Find(from, to, promo)
	if !ok {
		return Move{}, fmt.Errorf("illegal move %s in %s", s, p.Encode())
	}
	return m, nil
}

func placementOf(fen string) string {
	for i := 0; i < len(fen); i++ {
		if fen[i] == ' ' {
			return fen[:i]
		}
	}
	return fen
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
