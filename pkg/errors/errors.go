// Package errors provides structured error types for gradlayer.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes that matter most to library callers are the graph construction
// failures:
//   - SHAPE_MISMATCH: a tensor's element count does not fit its declared shape
//   - NOT_FOUND: an id referenced by an edge or node field is not in its map
//   - MALFORMED_RECORD: a required field is missing from an input record
//   - CYCLE_DETECTED: an input that must be acyclic contains a cycle
//
// All of them are raised at the point of detection and propagate to the
// caller. Nothing in this module retries or returns a partial graph.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "node %q", id)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing id
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMalformedRecord, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph construction errors
	ErrCodeShapeMismatch   Code = "SHAPE_MISMATCH"
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeMalformedRecord Code = "MALFORMED_RECORD"
	ErrCodeCycleDetected   Code = "CYCLE_DETECTED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code, so a
// NOT_FOUND raised deep inside a loader is still visible after the CLI wraps
// it with fmt.Errorf and %w.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// ShapeMismatch is shorthand for New(ErrCodeShapeMismatch, ...).
func ShapeMismatch(format string, args ...any) *Error {
	return New(ErrCodeShapeMismatch, format, args...)
}

// NotFound is shorthand for New(ErrCodeNotFound, ...).
func NotFound(format string, args ...any) *Error {
	return New(ErrCodeNotFound, format, args...)
}

// Malformed is shorthand for New(ErrCodeMalformedRecord, ...).
func Malformed(format string, args ...any) *Error {
	return New(ErrCodeMalformedRecord, format, args...)
}

// Cycle is shorthand for New(ErrCodeCycleDetected, ...).
func Cycle(format string, args ...any) *Error {
	return New(ErrCodeCycleDetected, format, args...)
}
