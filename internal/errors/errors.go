// Package errors defines the error taxonomy shared across the catalog
// service. Every failure surfaced to a caller is one of a small set of kinds
// so the HTTP layer can map it to a status and clients can branch on it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind int

const (
	// KindUnknown covers errors raised outside this package.
	KindUnknown Kind = iota
	// KindNotFound marks a missing single-entity lookup. It is an expected
	// outcome, not a fault.
	KindNotFound
	// KindSetupIncomplete marks a backend whose schema or stored procedures
	// are absent. Operators must run the migrations; retrying will not help.
	KindSetupIncomplete
	// KindValidation marks a precondition failure caught before any backend
	// call was made.
	KindValidation
	// KindUnauthorized marks a missing or invalid session.
	KindUnauthorized
	// KindForbidden marks a capability the caller's role does not grant.
	KindForbidden
	// KindUnavailable covers every other backend failure.
	KindUnavailable
)

// Error is the concrete error type used throughout the service.
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Details returns attached key/value context, or nil.
func (e *Error) Details() map[string]any { return e.details }

// WithDetails attaches a key/value pair and returns the error for chaining.
func (e *Error) WithDetails(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// NotFound reports a missing entity.
func NotFound(entity string) *Error {
	return newError(KindNotFound, entity+" not found", nil)
}

// SetupIncomplete reports an unprovisioned backend schema.
func SetupIncomplete(cause error) *Error {
	return newError(KindSetupIncomplete, "backend schema is not set up", cause)
}

// Validation reports a failed precondition.
func Validation(message string) *Error {
	return newError(KindValidation, message, nil)
}

// Unauthorized reports a missing or invalid session.
func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, message, nil)
}

// InvalidToken reports a session token that failed verification.
func InvalidToken(cause error) *Error {
	return newError(KindUnauthorized, "invalid session token", cause)
}

// Forbidden reports a capability violation.
func Forbidden(message string) *Error {
	return newError(KindForbidden, message, nil)
}

// Unavailable wraps any other backend failure.
func Unavailable(op string, cause error) *Error {
	return newError(KindUnavailable, op+" failed", cause)
}

// KindOf extracts the kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Message returns the caller-facing message of err, or a generic fallback
// for foreign errors whose text may leak internals.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.message
	}
	return "internal error"
}

// IsNotFound reports whether err is a missing-entity outcome.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsSetupIncomplete reports whether err indicates missing backend schema.
func IsSetupIncomplete(err error) bool { return KindOf(err) == KindSetupIncomplete }

// HTTPStatus maps an error to the status code the API returns for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindSetupIncomplete:
		return http.StatusServiceUnavailable
	case KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
