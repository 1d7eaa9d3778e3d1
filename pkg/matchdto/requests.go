package matchdto

type InitProfileRequest struct {
	Name string `json:"name"`
}

type CreateMatchRequest struct {
	ID          string `json:"id,omitempty"`
	Opponent    string `json:"opponent"`
	TimeControl string `json:"time_control,omitempty"`
}

type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

type RespondDrawRequest struct {
	Accept bool `json:"accept"`
}

type OverrideRequest struct {
	Status string `json:"status"`
}

// VerifyRequest classifies FEN. When Claimed is set the classification must match it.
type VerifyRequest struct {
	FEN     string `json:"fen"`
	Claimed string `json:"claimed,omitempty"`
}

type ValidateRequest struct {
	FEN       string `json:"fen"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}
