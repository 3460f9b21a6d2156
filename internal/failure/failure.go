// Package failure classifies what went wrong and how far the damage reaches.
package failure

import (
	"errors"
	"fmt"
)

// Kind discriminates how a failure affects the active combat session.
type Kind string

const (
	// KindValidation is a local precondition violation. No request was sent.
	KindValidation Kind = "validation"
	// KindResource is a turn rejected for insufficient in-session resources.
	// The session survives and the same attacker retries.
	KindResource Kind = "resource"
	// KindSession is any other failure. Client session state can no longer be
	// trusted and must be discarded.
	KindSession Kind = "session"
)

// Sentinels for errors.Is comparisons by kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrResource   = &Error{Kind: KindResource}
	ErrSession    = &Error{Kind: KindSession}
)

// Error is a classified client failure.
type Error struct {
	Kind    Kind
	Message string // Human-readable, shown in the operator log
	Status  int    // HTTP status when the failure came from a response, else 0
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Validation creates a local validation failure.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Resource creates a recoverable resource failure.
func Resource(status int, message string) *Error {
	return &Error{Kind: KindResource, Message: message, Status: status}
}

// Session creates a session failure from a response.
func Session(status int, message string) *Error {
	return &Error{Kind: KindSession, Message: message, Status: status}
}

// Wrap creates a session failure around a transport or decoding error.
func Wrap(message string, cause error) *Error {
	return &Error{Kind: KindSession, Message: fmt.Sprintf("%s: %v", message, cause), Cause: cause}
}

// KindOf returns the kind of err, treating unclassified errors as session
// failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindSession
}
