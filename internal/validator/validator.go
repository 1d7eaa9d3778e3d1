// Package validator checks a single coordinate move against a position without side effects.
package validator

import (
	"errors"
	"fmt"

	"github.com/park285/chessmatch/internal/position"
)

var (
	ErrNoPieceAtSource = errors.New("no piece at source square")
	ErrIllegalMove     = errors.New("illegal move")
)

// Result is the outcome of Validate. On success Position and FEN describe the
// position after the move; otherwise Err explains the rejection.
type Result struct {
	Valid    bool
	FEN      string
	Move     position.Move
	Position *position.Position
	Err      error
}

// Validate parses fen and checks the move from -> to with an optional promotion
// piece (q, r, b or n). Rejections are reported in this order: unparsable
// position, bad square, bad promotion, empty source square, illegal move.
func Validate(fen, from, to, promotion string) Result {
	p, err := position.Parse(fen)
	if err != nil {
		return Result{Err: err}
	}
	return ValidateAt(p, from, to, promotion)
}

// ValidateAt is Validate for an already parsed position.
func ValidateAt(p *position.Position, from, to, promotion string) Result {
	src, err := position.ParseSquare(from)
	if err != nil {
		return Result{Err: err}
	}
	dst, err := position.ParseSquare(to)
	if err != nil {
		return Result{Err: err}
	}
	promo, err := position.ParsePromotion(promotion)
	if err != nil {
		return Result{Err: err}
	}
	if !p.Occupied(src) {
		return Result{Err: fmt.Errorf("%w: %s", ErrNoPieceAtSource, src)}
	}
	m, ok := p.Find(src, dst, promo)
	if !ok {
		return Result{Err: fmt.Errorf("%w: %s%s%s", ErrIllegalMove, src, dst, promo)}
	}
	next := p.Apply(m)
	return Result{Valid: true, FEN: next.Encode(), Move: m, Position: next}
}
