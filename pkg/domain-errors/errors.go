// Package domainerrors provides coded errors for domain and service layers.
//
// Services return these so transports can map failures to responses without
// string matching, and so tests can assert on failure kind instead of
// message text. Infrastructure facts (record missing, resource unavailable)
// live in pkg/platform/sentinel; stores return sentinels and services
// translate them into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed or out-of-range caller input.
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks a transport-level request that cannot be parsed.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks a missing entity surfaced as an expected outcome.
	CodeNotFound Code = "not_found"

	// CodeConflict marks uniqueness or state conflicts.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks an aggregate constructor or mutation that
	// would break a documented invariant.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInvalidTransition marks a lifecycle transition the current status
	// does not permit.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeTerminalState marks a mutation attempted on a completed or
	// cancelled requirement.
	CodeTerminalState Code = "terminal_state"

	// CodeUploadFailed marks a storage gateway fault. Per-attachment,
	// non-fatal for the enclosing message.
	CodeUploadFailed Code = "upload_failed"

	// CodeForwardFailed marks a forwarding gateway fault. Reported, never
	// rolled back.
	CodeForwardFailed Code = "forward_failed"

	// CodeUnavailable marks an upstream dependency (mail source, queue)
	// that failed or timed out; the caller may retry.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
