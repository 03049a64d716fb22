// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors so that callers (and the
// operator reading the terminal) can tell bad input apart from missing
// resources, conflicts, and bugs without parsing message text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// missing required flags, wrong argument count, unparseable
	// values. The caller should fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced resource does not exist:
	// unknown record category, missing backup file, absent config.
	// Retrying with the same parameters will not help.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryConflict indicates the operation conflicts with existing
	// state, such as generating a certificate over files that are
	// already there without --force.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient indicates a temporary failure: network error
	// while fetching model weights, port already bound. The caller
	// should back off and retry.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates an unexpected error: bugs, I/O
	// failures, parse errors on data the kiosk itself produced. The
	// caller should report the error rather than retry.
	CategoryInternal ErrorCategory = "internal"
)

// CommandError is a categorized error returned by CLI commands. It
// wraps an inner error, preserving the full chain for errors.Is and
// errors.As, and optionally carries a Hint: a short paragraph of
// recovery guidance printed after the message. Use the
// category-specific constructors (Validation, NotFound, etc.) rather
// than constructing CommandError directly.
type CommandError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error

	// Hint is optional recovery guidance, set via WithHint.
	Hint string
}

// Error returns the underlying error message, with the hint appended
// after a blank line when one is set.
func (e *CommandError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

// Unwrap returns the underlying error, allowing errors.Is and
// errors.As to walk the full chain through the CommandError wrapper.
func (e *CommandError) Unwrap() error { return e.Err }

// WithHint attaches recovery guidance to the error and returns the
// receiver, so constructors chain: Validation("...").WithHint("...").
func (e *CommandError) WithHint(hint string) *CommandError {
	e.Hint = hint
	return e
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error: the operation conflicts with existing state.
func Conflict(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error: a temporary failure that may succeed on retry.
func Transient(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
