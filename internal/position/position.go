// Package position wraps the chess rules library with structural FEN validation,
// check detection and outcome classification for arbitrary positions.
package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrParse        = errors.New("invalid position")
	ErrBadSquare    = errors.New("invalid square")
	ErrBadPromotion = errors.New("invalid promotion piece")
)

// ParseError describes why a FEN record was rejected.
type ParseError struct {
	FEN    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid position %q: %s", e.FEN, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Position is an immutable chess position. board mirrors the placement for the
// attack scan; piece lookups go through pos.
type Position struct {
	pos   *nchess.Position
	board board
	white bool
	ep    string
}

// Parse decodes a FEN record and rejects positions that cannot arise in a legal game.
// A four-field record gets default move counters.
func Parse(fen string) (p *Position, err error) {
	fen = strings.TrimSpace(fen)
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return nil, &ParseError{FEN: fen, Reason: fmt.Sprintf("expected 6 fields, got %d", len(fields))}
	}
	b, err := parsePlacement(fields[0])
	if err != nil {
		return nil, &ParseError{FEN: fen, Reason: err.Error()}
	}
	if err := validate(b, fields); err != nil {
		return nil, &ParseError{FEN: fen, Reason: err.Error()}
	}

	defer func() {
		if r := recover(); r != nil {
			p, err = nil, &ParseError{FEN: fen, Reason: fmt.Sprint(r)}
		}
	}()
	opt, err := nchess.FEN(strings.Join(fields, " "))
	if err != nil {
		return nil, &ParseError{FEN: fen, Reason: err.Error()}
	}
	game := nchess.NewGame(opt)
	return &Position{pos: game.Position(), board: b, white: fields[1] == "w", ep: fields[3]}, nil
}

// MustParse is Parse for known-good records; it panics on error.
func MustParse(fen string) *Position {
	p, err := Parse(fen)
	if err != nil {
		panic(err)
	}
	return p
}

func validate(b board, fields []string) error {
	if n := b.count('K'); n != 1 {
		return fmt.Errorf("white has %d kings", n)
	}
	if n := b.count('k'); n != 1 {
		return fmt.Errorf("black has %d kings", n)
	}
	if err := checkMaterial(b, true); err != nil {
		return err
	}
	if err := checkMaterial(b, false); err != nil {
		return err
	}
	for f := 0; f < 8; f++ {
		for _, r := range [2]int{0, 7} {
			if c := b[sq(f, r)]; c == 'P' || c == 'p' {
				return fmt.Errorf("pawn on %s", squareName(sq(f, r)))
			}
		}
	}

	var white bool
	switch fields[1] {
	case "w":
		white = true
	case "b":
	default:
		return fmt.Errorf("side to move %q", fields[1])
	}
	if err := checkCastling(b, fields[2]); err != nil {
		return err
	}
	if err := checkEnPassant(b, fields[3], white); err != nil {
		return err
	}
	if n, err := strconv.Atoi(fields[4]); err != nil || n < 0 {
		return fmt.Errorf("halfmove clock %q", fields[4])
	}
	if n, err := strconv.Atoi(fields[5]); err != nil || n < 1 {
		return fmt.Errorf("fullmove number %q", fields[5])
	}
	if b.kingInCheck(!white) {
		return errors.New("side not to move is in check")
	}
	return nil
}

func checkMaterial(b board, white bool) error {
	side := "black"
	letter := func(p byte) byte { return p }
	if white {
		side = "white"
		letter = func(p byte) byte { return p - 'a' + 'A' }
	}
	pawns := b.count(letter('p'))
	knights := b.count(letter('n'))
	bishops := b.count(letter('b'))
	rooks := b.count(letter('r'))
	queens := b.count(letter('q'))
	if pawns > 8 {
		return fmt.Errorf("%s has %d pawns", side, pawns)
	}
	if total := pawns + knights + bishops + rooks + queens + 1; total > 16 {
		return fmt.Errorf("%s has %d pieces", side, total)
	}
	promoted := max(0, knights-2) + max(0, bishops-2) + max(0, rooks-2) + max(0, queens-1)
	if promoted > 8-pawns {
		return fmt.Errorf("%s has %d promoted pieces with %d pawns", side, promoted, pawns)
	}
	return nil
}

func checkCastling(b board, field string) error {
	if field == "-" {
		return nil
	}
	seen := map[rune]bool{}
	for _, c := range field {
		if seen[c] {
			return fmt.Errorf("castling rights %q", field)
		}
		seen[c] = true
		var king, rook int
		var k, r byte
		switch c {
		case 'K':
			king, rook, k, r = sq(4, 0), sq(7, 0), 'K', 'R'
		case 'Q':
			king, rook, k, r = sq(4, 0), sq(0, 0), 'K', 'R'
		case 'k':
			king, rook, k, r = sq(4, 7), sq(7, 7), 'k', 'r'
		case 'q':
			king, rook, k, r = sq(4, 7), sq(0, 7), 'k', 'r'
		default:
			return fmt.Errorf("castling rights %q", field)
		}
		if b[king] != k || b[rook] != r {
			return fmt.Errorf("castling right %c without king and rook on home squares", c)
		}
	}
	return nil
}

func checkEnPassant(b board, field string, white bool) error {
	if field == "-" {
		return nil
	}
	target, err := ParseSquare(field)
	if err != nil {
		return fmt.Errorf("en passant square %q", field)
	}
	file, rank := target.File(), target.Rank()
	// white to move means black just double-pushed onto rank 5
	wantRank, pawnRank, originRank, pawn := 5, 4, 6, byte('p')
	if !white {
		wantRank, pawnRank, originRank, pawn = 2, 3, 1, 'P'
	}
	if rank != wantRank {
		return fmt.Errorf("en passant square %s on wrong rank", field)
	}
	if b[sq(file, pawnRank)] != pawn {
		return fmt.Errorf("en passant square %s without a pushed pawn", field)
	}
	if b[sq(file, rank)] != 0 || b[sq(file, originRank)] != 0 {
		return fmt.Errorf("en passant square %s is blocked", field)
	}
	return nil
}

// Encode renders the position as FEN. Parse(p.Encode()) encodes identically.
func (p *Position) Encode() string {
	fields := strings.Fields(p.pos.String())
	if len(fields) == 6 {
		fields[3] = p.ep
	}
	return strings.Join(fields, " ")
}

func (p *Position) String() string { return p.Encode() }

// WhiteToMove reports the side to move.
func (p *Position) WhiteToMove() bool { return p.white }

// Occupied reports whether any piece stands on s.
func (p *Position) Occupied(s Square) bool {
	return p.pos.Board().Piece(nchess.Square(s)) != nchess.NoPiece
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.board.kingInCheck(p.white) }
