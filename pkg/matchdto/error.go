package matchdto

// ErrorResponse is the body of every non-2xx response. Code is the rejection
// kind ("not_your_turn", ...) or "internal".
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
	Match   *MatchState `json:"match,omitempty"`
}

func (e ErrorResponse) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chessmatch service error"
}
