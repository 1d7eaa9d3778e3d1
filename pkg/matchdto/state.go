package matchdto

type MatchState struct {
	ID           string   `json:"id"`
	White        string   `json:"white"`
	Black        string   `json:"black"`
	Moves        []string `json:"moves"`
	FEN          string   `json:"fen"`
	Status       string   `json:"status"`
	Method       string   `json:"method,omitempty"`
	Turn         string   `json:"turn"`
	WhiteClock   uint64   `json:"white_clock"`
	BlackClock   uint64   `json:"black_clock"`
	MoveCount    int      `json:"move_count"`
	CreatedTick  uint64   `json:"created_tick"`
	LastMoveTick uint64   `json:"last_move_tick"`
	TimeControl  string   `json:"time_control,omitempty"`
	DrawProposer string   `json:"draw_proposer,omitempty"`
}

type MatchList struct {
	Matches []*MatchState `json:"matches"`
}

type IDList struct {
	IDs []string `json:"ids"`
}

type ProfileState struct {
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

type ClockState struct {
	WhiteRemaining uint64 `json:"white_remaining"`
	BlackRemaining uint64 `json:"black_remaining"`
	Turn           string `json:"turn"`
	Expired        bool   `json:"expired"`
	MoveCount      int    `json:"move_count"`
	Elapsed        uint64 `json:"elapsed_since_last_move"`
}

// Verification describes a position: its status label, check flag and legal
// moves in both SAN and coordinate form.
type Verification struct {
	Status        string   `json:"status"`
	Check         bool     `json:"is_check"`
	LegalMoves    []string `json:"legal_moves"`
	LegalMovesUCI []string `json:"legal_moves_uci"`
}

type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	FEN     string `json:"fen,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
