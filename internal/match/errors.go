package match

import (
	"errors"
	"fmt"

	"github.com/park285/chessmatch/internal/position"
	"github.com/park285/chessmatch/internal/validator"
)

// Kind classifies a rejected action.
type Kind string

const (
	KindParse                      Kind = "parse_error"
	KindBadSquare                  Kind = "bad_square"
	KindBadPromotion               Kind = "bad_promotion"
	KindNoPieceAtSource            Kind = "no_piece_at_source"
	KindIllegalMove                Kind = "illegal_move"
	KindNotParticipant             Kind = "not_participant"
	KindNotYourTurn                Kind = "not_your_turn"
	KindGameNotActive              Kind = "game_not_active"
	KindGameAlreadyExists          Kind = "game_already_exists"
	KindDrawAlreadyProposed        Kind = "draw_already_proposed"
	KindNoDrawProposal             Kind = "no_draw_proposal"
	KindCannotRespondToOwnProposal Kind = "cannot_respond_to_own_proposal"
	KindTimeExpired                Kind = "time_expired"
	KindClaimMismatch              Kind = "claim_mismatch"
	KindNotFound                   Kind = "not_found"
	KindBadStatus                  Kind = "bad_status"
	KindInvalidArgument            Kind = "invalid_argument"
)

// Error is returned for every rejected action. Two Errors match under errors.Is
// when their kinds are equal, so the Err* values below work as sentinels.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrParse                      = &Error{Kind: KindParse}
	ErrBadSquare                  = &Error{Kind: KindBadSquare}
	ErrBadPromotion               = &Error{Kind: KindBadPromotion}
	ErrNoPieceAtSource            = &Error{Kind: KindNoPieceAtSource}
	ErrIllegalMove                = &Error{Kind: KindIllegalMove}
	ErrNotParticipant             = &Error{Kind: KindNotParticipant}
	ErrNotYourTurn                = &Error{Kind: KindNotYourTurn}
	ErrGameNotActive              = &Error{Kind: KindGameNotActive}
	ErrGameAlreadyExists          = &Error{Kind: KindGameAlreadyExists}
	ErrDrawAlreadyProposed        = &Error{Kind: KindDrawAlreadyProposed}
	ErrNoDrawProposal             = &Error{Kind: KindNoDrawProposal}
	ErrCannotRespondToOwnProposal = &Error{Kind: KindCannotRespondToOwnProposal}
	ErrTimeExpired                = &Error{Kind: KindTimeExpired}
	ErrClaimMismatch              = &Error{Kind: KindClaimMismatch}
	ErrNotFound                   = &Error{Kind: KindNotFound}
	ErrBadStatus                  = &Error{Kind: KindBadStatus}
	ErrInvalidArgument            = &Error{Kind: KindInvalidArgument}
)

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of a rejection; ok is false for infrastructure errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// fromRules maps position and validator errors onto kinds.
func fromRules(err error) error {
	if err == nil {
		return nil
	}
	var kind Kind
	switch {
	case errors.Is(err, position.ErrParse):
		kind = KindParse
	case errors.Is(err, position.ErrBadSquare):
		kind = KindBadSquare
	case errors.Is(err, position.ErrBadPromotion):
		kind = KindBadPromotion
	case errors.Is(err, validator.ErrNoPieceAtSource):
		kind = KindNoPieceAtSource
	case errors.Is(err, validator.ErrIllegalMove):
		kind = KindIllegalMove
	default:
		return err
	}
	return &Error{Kind: kind, Detail: err.Error()}
}
