package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service that is not an unexpected
// storage fault wraps exactly one of these, so callers can switch on
// errors.Is(err, ErrConflict) and friends.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

var (
	ErrGigNotFound      = newError(ErrNotFound, "gig not found")
	ErrBidNotFound      = newError(ErrNotFound, "bid not found")
	ErrUserNotFound     = newError(ErrNotFound, "user not found")
	ErrNotGigOwner      = newError(ErrForbidden, "only the gig owner can do this")
	ErrOwnGig           = newError(ErrForbidden, "you cannot bid on your own gig")
	ErrGigNotOpen       = newError(ErrInvalidState, "gig is not open for bids")
	ErrGigLocked        = newError(ErrInvalidState, "gig is assigned and can no longer be changed")
	ErrAmountOutOfRange = newError(ErrInvalidState, "amount must be between 0.01 and 9999999999.99")
	ErrDuplicateBid     = newError(ErrConflict, "you have already placed a bid on this gig")
	ErrAlreadyAssigned  = newError(ErrConflict, "gig already assigned")
)

var ErrNoFieldsToUpdate = errors.New("no fields to update")

type Error struct {
	Kind error
	Msg  string
	Err  error
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func unavailable(msg string, err error) error {
	return &Error{Kind: ErrUnavailable, Msg: msg, Err: err}
}
