package errors

import (
	"fmt"
)

// SyncError is the structured error type for searchsync. Inner code
// wraps with fmt.Errorf; the boundaries (CLI, daemon startup) convert
// failures into SyncErrors so operators get codes and hints.
type SyncError struct {
	// Code is the unique error code (e.g., "ERR_201_DATABASE_OPEN").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Database, Index, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Cause is the underlying error.
	Cause error

	// Retryable indicates the next drain cycle may succeed.
	Retryable bool

	// Suggestion is an actionable hint for the operator.
	Suggestion string
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Is matches SyncErrors by code, enabling errors.Is.
func (e *SyncError) Is(target error) bool {
	if t, ok := target.(*SyncError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithSuggestion adds an actionable hint. Returns the error for
// chaining.
func (e *SyncError) WithSuggestion(suggestion string) *SyncError {
	e.Suggestion = suggestion
	return e
}

// New creates a SyncError with the given code and message. Category,
// severity, and the retryable flag are derived from the code.
func New(code string, message string, cause error) *SyncError {
	return &SyncError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SyncError from an existing error, reusing its message.
func Wrap(code string, err error) *SyncError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SyncError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// DatabaseError creates a database-related error.
func DatabaseError(message string, cause error) *SyncError {
	return New(ErrCodeDatabaseOpen, message, cause)
}

// IndexError creates a search-backend error.
func IndexError(message string, cause error) *SyncError {
	return New(ErrCodeIndexOpen, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SyncError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SyncError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable reports whether err is a SyncError marked retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SyncError); ok {
		return se.Retryable
	}
	return false
}

// IsFatal reports whether err carries fatal severity.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SyncError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or "" for foreign errors.
func GetCode(err error) string {
	if se, ok := err.(*SyncError); ok {
		return se.Code
	}
	return ""
}
