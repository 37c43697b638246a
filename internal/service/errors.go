package service

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies service failures for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a classified, human readable service failure. Code is an
// optional machine readable tag for callers that branch on it.
type Error struct {
	Kind Kind
	Msg  string
	Code string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// nowFunc is the service clock. Tests override it.
var nowFunc = time.Now

// --- Shared errors ---
var (
	ErrUserNotFound    = newError(KindNotFound, "user not found")
	ErrClientNotFound  = newError(KindNotFound, "client not found")
	ErrTrainerNotFound = newError(KindNotFound, "trainer not found")
	ErrInvalidID       = newError(KindValidation, "invalid id")
	ErrNotYourClient   = newError(KindForbidden, "client is not assigned to you")
)
