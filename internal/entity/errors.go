package entity

import (
	"errors"
	"fmt"
)

// Domain errors. Outward-facing failures wrap one of these in an *Error.
var (
	ErrNotFound         = errors.New("entity: not found")
	ErrTypeMismatch     = errors.New("entity: driver mismatch")
	ErrUnknownDriver    = errors.New("entity: unknown driver")
	ErrValidation       = errors.New("entity: validation failed")
	ErrInvalidRequest   = errors.New("entity: invalid request")
	ErrInvalidFilter    = errors.New("entity: invalid filter")
	ErrInvalidReference = errors.New("entity: invalid reference")
)

// Error is a classified failure carrying a client-safe message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel so errors.Is works.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the client-safe message for err, or "" when err is not
// an *Error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
