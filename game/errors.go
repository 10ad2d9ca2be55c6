// Package game holds the pieces shared by the session engine: the error
// taxonomy and the interfaces of its external collaborators.
package game

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an engine error. Every error returned by an engine
// operation carries exactly one kind.
type Kind string

const (
	KindValidation    Kind = "validation"    // caller-fixable payload or settings
	KindNotFound      Kind = "not_found"     // unknown session id or join code
	KindAuthorization Kind = "authorization" // non-host attempting a host-only action
	KindState         Kind = "state"         // operation invalid for current status
	KindRateLimited   Kind = "rate_limited"  // permission check denied the action
)

// Error is the engine's error type. Operations fail atomically: an Error
// never leaves a session partially mutated.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // set for KindRateLimited only
}

func (e *Error) Error() string { return e.Message }

// Validationf builds a KindValidation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a KindNotFound error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Authorizationf builds a KindAuthorization error.
func Authorizationf(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Statef builds a KindState error.
func Statef(format string, args ...any) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// RateLimited builds a KindRateLimited error carrying the retry delay.
func RateLimited(action string, retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    fmt.Sprintf("action %q rate limited", action),
		RetryAfter: retryAfter,
	}
}

// IsKind reports whether err is an engine Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == k
}
