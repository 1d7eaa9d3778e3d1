package position

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Status classifies a position for the side to move.
type Status int

const (
	Active Status = iota
	Checkmate
	Stalemate
	Draw
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	}
	return "active"
}

// ParseStatus reads a classification label as produced by Status.String.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return Active, nil
	case "checkmate":
		return Checkmate, nil
	case "stalemate":
		return Stalemate, nil
	case "draw":
		return Draw, nil
	}
	return Active, fmt.Errorf("unknown position status %q", s)
}

// Classify reports checkmate or stalemate when no legal move exists, otherwise
// draw on insufficient material, otherwise active.
func (p *Position) Classify() Status {
	if len(p.pos.ValidMoves()) == 0 {
		if p.InCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if p.InsufficientMaterial() {
		return Draw
	}
	return Active
}

// InsufficientMaterial reports K v K, a lone minor piece, or bishops only that all
// stand on one square color.
func (p *Position) InsufficientMaterial() bool {
	var knights, bishops int
	bishopColors := [2]bool{}
	for s, pc := range p.pos.Board().SquareMap() {
		switch pc.Type() {
		case nchess.King:
		case nchess.Knight:
			knights++
		case nchess.Bishop:
			bishops++
			bishopColors[(int(s.File())+int(s.Rank()))%2] = true
		default:
			return false
		}
	}
	switch {
	case knights+bishops <= 1:
		return true
	case knights == 0:
		return !(bishopColors[0] && bishopColors[1])
	}
	return false
}
