// Package apperr defines the error kinds that may cross the HTTP boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is a stable label reported to API callers.
type Kind string

const (
	KindInput       Kind = "input_error"
	KindPersistence Kind = "persistence_error"
	KindGeneration  Kind = "generation_error"
	KindSynthesis   Kind = "synthesis_error"
	KindNotFound    Kind = "not_found"
	KindInternal    Kind = "internal_error"
)

// Error carries a kind, a caller-facing message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Input(message string, cause error) *Error {
	return New(KindInput, message, cause)
}

func Persistence(message string, cause error) *Error {
	return New(KindPersistence, message, cause)
}

func Generation(message string, cause error) *Error {
	return New(KindGeneration, message, cause)
}

func Synthesis(message string, cause error) *Error {
	return New(KindSynthesis, message, cause)
}

// Internal covers server-side failures outside the conversation store and the
// remote collaborators.
func Internal(message string, cause error) *Error {
	return New(KindInternal, message, cause)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err. Unclassified errors are internal errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message without internal causes.
func MessageOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInput:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
