// Package apperr classifies domain failures so the HTTP boundary can map them
// to status codes without knowing which package produced them.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the category of a failure.
type Kind int

const (
	Unexpected Kind = iota
	NotFound
	Validation
	Conflict
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	default:
		return "unexpected"
	}
}

// FieldError is a single failed input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a Kind, a client-facing message and the underlying cause.
// The cause is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundf builds a NotFound error wrapping cause.
func NotFoundf(cause error, format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Conflictf builds a Conflict error wrapping cause.
func Conflictf(cause error, format string, args ...any) *Error {
	return &Error{Kind: Conflict, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Invalid builds a Validation error from field errors. The message joins the
// fields as "field: message" pairs.
func Invalid(fields ...FieldError) *Error {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return &Error{Kind: Validation, Message: strings.Join(parts, "; "), Fields: fields}
}

// KindOf reports the Kind of err, or Unexpected when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unexpected
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
