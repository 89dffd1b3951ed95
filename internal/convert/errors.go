// Package convert holds the conversion dispatch table, the shared
// error taxonomy for conversion failures, and the temporary workspace
// helper used by the file-based adapters.
package convert

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a conversion failure. Codes drive what the user
// sees and whether session state is touched; none of them crash the
// dispatch loop.
type ErrorCode string

const (
	// ErrCodeUnsupported indicates the dispatch table has no route for
	// the requested source/target pair.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_CONVERSION"

	// ErrCodeDecode indicates the input media could not be decoded.
	ErrCodeDecode ErrorCode = "DECODE_FAILURE"

	// ErrCodeExternalTool indicates an external converter exited
	// abnormally or could not be invoked.
	ErrCodeExternalTool ErrorCode = "EXTERNAL_TOOL_FAILURE"

	// ErrCodeToolTimeout indicates an external converter exceeded its
	// bounded wait.
	ErrCodeToolTimeout ErrorCode = "TOOL_TIMEOUT"

	// ErrCodeMissingArtifact indicates a conversion was requested with
	// nothing uploaded.
	ErrCodeMissingArtifact ErrorCode = "MISSING_PENDING_ARTIFACT"

	// ErrCodeInvalidChoice indicates a numeric or textual choice
	// outside the expected set for the current state.
	ErrCodeInvalidChoice ErrorCode = "INVALID_CHOICE"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured conversion error with a code, a human-readable
// message and an optional wrapped cause.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrUnsupported creates an unsupported-conversion error.
func ErrUnsupported(message string) *Error {
	return NewError(ErrCodeUnsupported, message, nil)
}

// ErrDecode creates a decode-failure error.
func ErrDecode(message string, err error) *Error {
	return NewError(ErrCodeDecode, message, err)
}

// ErrExternalTool creates an external-tool failure error.
func ErrExternalTool(message string, err error) *Error {
	return NewError(ErrCodeExternalTool, message, err)
}

// ErrToolTimeout creates a tool-timeout error.
func ErrToolTimeout(message string, err error) *Error {
	return NewError(ErrCodeToolTimeout, message, err)
}

// ErrMissingArtifact creates a missing-pending-artifact error.
func ErrMissingArtifact(message string) *Error {
	return NewError(ErrCodeMissingArtifact, message, nil)
}

// ErrInvalidChoice creates an invalid-choice error.
func ErrInvalidChoice(message string) *Error {
	return NewError(ErrCodeInvalidChoice, message, nil)
}

// ErrInternal creates an internal error.
func ErrInternal(message string, err error) *Error {
	return NewError(ErrCodeInternal, message, err)
}

// CodeOf extracts the ErrorCode from an error, defaulting to
// ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ErrCodeInternal
}
