// Package herr defines the closed set of error kinds the core surfaces to
// callers and front-ends, plus helpers for wrapping and classifying causes.
package herr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error for user-facing display and for decisions about
// whether it is recoverable. It intentionally does not mirror Go's error
// type hierarchy: several causes can share a Kind.
type Kind string

const (
	KindConfig  Kind = "config"
	KindIO      Kind = "io"
	KindCodec   Kind = "codec"
	KindRPC     Kind = "rpc"
	KindPlugin  Kind = "plugin"
	KindStore   Kind = "store"
	KindWatcher Kind = "watcher"
)

// Error pairs a Kind with a human-readable message and an optional cause.
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

// New creates a Kind-tagged error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags cause with kind and message, preserving the cause chain via
// github.com/pkg/errors so callers can still retrieve the original error
// with errors.Cause.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Cause: pkgerrors.Wrap(cause, message)}
}

// KindOf extracts the Kind of err, returning ok=false if err (or any error
// in its chain) is not a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
