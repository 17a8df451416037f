// Package errkind classifies failures into the kinds the rest of the module
// reasons about: BadInput, Transient, Unavailable, Degraded, InvalidState, Fatal.
package errkind

import (
	"errors"
	"fmt"
)

// Kind is a coarse failure classification used to drive retry, circuit-breaker,
// and propagation decisions without string-matching error messages.
type Kind string

const (
	// BadInput is a caller-supplied value that violates a syntactic or
	// semantic precondition. Never retried; surfaced to the caller.
	BadInput Kind = "BadInput"
	// Transient is a network error, timeout, HTTP 429/5xx, or rate-limit
	// refusal. Retried with backoff; engages the circuit breaker on repetition.
	Transient Kind = "Transient"
	// Unavailable means the circuit breaker is open or a provider chain is
	// exhausted with no cache. Reported as a missing field; does not abort
	// the request.
	Unavailable Kind = "Unavailable"
	// Degraded means the request succeeded with partial data.
	Degraded Kind = "Degraded"
	// InvalidState is a state-machine violation.
	InvalidState Kind = "InvalidState"
	// Fatal is a programmer error or data-store corruption. Not retried.
	Fatal Kind = "Fatal"
)

// Error wraps an underlying error with a Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// BadInputf builds a BadInput error.
func BadInputf(op, format string, args ...any) *Error { return newf(BadInput, op, format, args...) }

// Transientf builds a Transient error.
func Transientf(op string, err error) *Error { return New(Transient, op, err) }

// Unavailablef builds an Unavailable error.
func Unavailablef(op, format string, args ...any) *Error {
	return newf(Unavailable, op, format, args...)
}

// InvalidStatef builds an InvalidState error.
func InvalidStatef(op, format string, args ...any) *Error {
	return newf(InvalidState, op, format, args...)
}

// Fatalf builds a Fatal error.
func Fatalf(op string, err error) *Error { return New(Fatal, op, err) }

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err, or "" if err is not a classified Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
