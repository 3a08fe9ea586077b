// Package errs defines the error taxonomy shared across the sync engine,
// tracker client, analytics engine, and audit log. Call sites classify
// failures with errors.As/errors.Is against the Kind sentinels instead of
// inspecting ad hoc string messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the taxonomy of section 7.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindAuthFailure     Kind = "auth_failure"
	KindAuthzFailure    Kind = "authz_failure"
	KindRateLimit       Kind = "rate_limit"
	KindExternalService Kind = "external_service"
	KindConflict        Kind = "conflict"
	KindCancelled       Kind = "cancelled"
	KindInternal        Kind = "internal"
)

// Error wraps an underlying cause with a classification and a human message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, errs.NotFound("")) style sentinel comparisons
// by matching on Kind alone, ignoring Message/Cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NotFound(resource string) *Error { return newError(KindNotFound, resource+" not found", nil) }

func Validation(message string) *Error { return newError(KindValidation, message, nil) }

func AuthFailure(message string) *Error { return newError(KindAuthFailure, message, nil) }

func AuthzFailure(message string) *Error { return newError(KindAuthzFailure, message, nil) }

func RateLimit(message string) *Error { return newError(KindRateLimit, message, nil) }

func ExternalService(message string, cause error) *Error {
	return newError(KindExternalService, message, cause)
}

func Conflict(message string) *Error { return newError(KindConflict, message, nil) }

func Cancelled() *Error { return newError(KindCancelled, "cancelled", nil) }

func Internal(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error,
// and KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
