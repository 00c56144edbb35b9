// Package errors provides structured error types for the dxfgeo pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and library callers
//   - Machine-readable error codes for programmatic handling
//   - Per-entity error accounting in import statistics
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map onto the recovery policy of the import pipeline:
//   - STRUCTURAL_PARSE, VALIDATION, UNSUPPORTED_ENTITY and BLOCK_RESOLUTION
//     are recovered per entity; the import continues.
//   - COORDINATE_TRANSFORM triggers the placeholder-geometry fallback and a
//     surfaced warning.
//   - RESOURCE_LIMIT is the only code that aborts an import outright.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "circle radius must be positive, got %f", r)
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // Skip this entity, record it in stats
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStructuralParse, origErr, "entity at tag %d", n)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Recoverable per-entity conditions
	ErrCodeStructuralParse   Code = "STRUCTURAL_PARSE"
	ErrCodeValidation        Code = "VALIDATION"
	ErrCodeUnsupportedEntity Code = "UNSUPPORTED_ENTITY"
	ErrCodeBlockResolution   Code = "BLOCK_RESOLUTION"

	// Recovered with fallback geometry, surfaced as a warning
	ErrCodeCoordinateTransform Code = "COORDINATE_TRANSFORM"

	// Fatal: aborts the whole import
	ErrCodeResourceLimit Code = "RESOURCE_LIMIT"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidOptions Code = "INVALID_OPTIONS"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidSRID    Code = "INVALID_SRID"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeBlockNotFound Code = "BLOCK_NOT_FOUND"

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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
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
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err should abort the whole import rather than
// being recovered per entity. Only resource-limit violations qualify.
func IsFatal(err error) bool {
	return Is(err, ErrCodeResourceLimit)
}
