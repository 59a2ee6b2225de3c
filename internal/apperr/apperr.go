// Package apperr defines the error taxonomy shared by services, repositories
// and handlers.  Every operation in the core either succeeds or fails with
// exactly one of the kinds below; the Echo error handler translates kinds
// into transport status codes and a uniform response body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.  Handlers must never branch on error strings;
// they branch on the kind.
type Kind int

const (
	Internal              Kind = iota // unclassified failure
	Conflict                          // duplicate identity (email/username/scientific name)
	InvalidCredentials                // bad login or password-change current password
	AccountLocked                     // too many failed logins, lock window still open
	AccountInactive                   // identity deactivated
	InvalidToken                      // malformed or badly signed token
	ExpiredToken                      // structurally valid token past its expiry
	InvalidOrExpiredToken             // reset/verification flows: deliberately merged
	NotFound                          // record does not exist
	Forbidden                         // role not in the allow-list
	Unauthenticated                   // missing or unverifiable bearer token
	ValidationFailed                  // malformed input, field errors attached
)

// FieldError names a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a kind, a user-visible message and, for validation
// failures, the offending fields.  Err holds the wrapped cause when the
// failure originated lower in the stack.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a ValidationFailed error from field errors.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: ValidationFailed, Message: "validation failed", Fields: fields}
}

// KindOf extracts the kind from err.  Plain errors classify as Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// HTTPStatus maps a kind to its transport status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case Conflict:
		return http.StatusConflict
	case InvalidCredentials, InvalidToken, ExpiredToken, Unauthenticated, AccountInactive:
		return http.StatusUnauthorized
	case AccountLocked:
		return http.StatusLocked
	case InvalidOrExpiredToken, ValidationFailed:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
