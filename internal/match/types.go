package match

import (
	"fmt"
	"slices"
	"strings"
)

// Color identifies a side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Status is the lifecycle state of a match. Every status other than StatusActive is terminal.
type Status string

const (
	StatusActive   Status = "active"
	StatusWhiteWon Status = "white_won"
	StatusBlackWon Status = "black_won"
	StatusDraw     Status = "draw"
)

func (s Status) Terminal() bool { return s != StatusActive }

// ParseStatus accepts the labels above in any case.
func ParseStatus(label string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(label))); s {
	case StatusActive, StatusWhiteWon, StatusBlackWon, StatusDraw:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", label)
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Method records how a match reached its terminal status.
type Method string

const (
	MethodCheckmate            Method = "checkmate"
	MethodStalemate            Method = "stalemate"
	MethodInsufficientMaterial Method = "insufficient_material"
	MethodResignation          Method = "resignation"
	MethodTimeout              Method = "timeout"
	MethodAgreement            Method = "agreement"
	MethodAdjudication         Method = "adjudication"
)

// Outcome is the result handed to the profile ledger. Exactly one side wins or the game is drawn.
type Outcome int

const (
	WhiteWins Outcome = iota + 1
	BlackWins
	Drawn
)

func (o Outcome) Status() Status {
	switch o {
	case WhiteWins:
		return StatusWhiteWon
	case BlackWins:
		return StatusBlackWon
	}
	return StatusDraw
}

func (o Outcome) String() string { return string(o.Status()) }

func winFor(c Color) Outcome {
	if c == White {
		return WhiteWins
	}
	return BlackWins
}

func outcomeOf(s Status) (Outcome, bool) {
	switch s {
	case StatusWhiteWon:
		return WhiteWins, true
	case StatusBlackWon:
		return BlackWins, true
	case StatusDraw:
		return Drawn, true
	}
	return 0, false
}

// Match is the persisted record of one game.
type Match struct {
	ID           string   `json:"id"`
	White        string   `json:"white"`
	Black        string   `json:"black"`
	Moves        []string `json:"moves"`
	FEN          string   `json:"fen"`
	Status       Status   `json:"status"`
	Method       Method   `json:"method,omitempty"`
	Turn         Color    `json:"turn"`
	WhiteClock   uint64   `json:"white_clock"`
	BlackClock   uint64   `json:"black_clock"`
	MoveCount    int      `json:"move_count"`
	CreatedTick  uint64   `json:"created_tick"`
	LastMoveTick uint64   `json:"last_move_tick"`
	TimeControl  string   `json:"time_control"`
	DrawProposer string   `json:"draw_proposer,omitempty"`
}

// Side returns the color the player holds in this match.
func (g *Match) Side(player string) (Color, bool) {
	switch player {
	case g.White:
		return White, true
	case g.Black:
		return Black, true
	}
	return "", false
}

// Player returns the player holding the given color.
func (g *Match) Player(c Color) string {
	if c == White {
		return g.White
	}
	return g.Black
}

func (g *Match) clock(c Color) uint64 {
	if c == White {
		return g.WhiteClock
	}
	return g.BlackClock
}

func (g *Match) setClock(c Color, v uint64) {
	if c == White {
		g.WhiteClock = v
	} else {
		g.BlackClock = v
	}
}

// Profile is a player's rating and record.
type Profile struct {
	Player       string   `json:"player"`
	Name         string   `json:"name"`
	Rating       int      `json:"rating"`
	GamesPlayed  int      `json:"games_played"`
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	Draws        int      `json:"draws"`
	CurrentGames []string `json:"current_games"`
	CreatedTick  uint64   `json:"created_tick"`
}

func (p *Profile) addGame(id string) {
	if !slices.Contains(p.CurrentGames, id) {
		p.CurrentGames = append(p.CurrentGames, id)
	}
}

func (p *Profile) removeGame(id string) {
	p.CurrentGames = slices.DeleteFunc(p.CurrentGames, func(g string) bool { return g == id })
}

// ClockStatus is a read-only view of both clocks at a given tick.
type ClockStatus struct {
	WhiteRemaining uint64 `json:"white_remaining"`
	BlackRemaining uint64 `json:"black_remaining"`
	Turn           Color  `json:"turn"`
	Expired        bool   `json:"expired"`
	MoveCount      int    `json:"move_count"`
	Elapsed        uint64 `json:"elapsed_since_last_move"`
}

// Verification describes an arbitrary position.
type Verification struct {
	Status        string   `json:"status"`
	Check         bool     `json:"is_check"`
	LegalMoves    []string `json:"legal_moves"`
	LegalMovesUCI []string `json:"legal_moves_uci"`
}

// MoveCheck is the answer of ValidateMove.
type MoveCheck struct {
	Valid bool   `json:"is_valid"`
	FEN   string `json:"resulting_fen,omitempty"`
	Err   error  `json:"-"`
}
