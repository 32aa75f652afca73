package errors

import (
	"errors"
	"fmt"
)

// SemidxError is the structured error type for semidx.
// It provides rich context for error handling, logging, and user presentation.
type SemidxError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SemidxError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SemidxError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SemidxError.
func (e *SemidxError) Is(target error) bool {
	if t, ok := target.(*SemidxError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SemidxError) WithDetail(key, value string) *SemidxError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *SemidxError) WithSuggestion(suggestion string) *SemidxError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SemidxError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SemidxError {
	return &SemidxError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SemidxError from an existing error.
// The error's message becomes the SemidxError message.
func Wrap(code string, err error) *SemidxError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidPath creates an invalid-path validation error.
func InvalidPath(path string, cause error) *SemidxError {
	return New(ErrCodeInvalidPath, fmt.Sprintf("invalid path: %s", path), cause).
		WithDetail("path", path)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *SemidxError {
	return New(ErrCodeFileNotFound, message, cause)
}

// InvalidPatterns creates a pattern-compilation validation error.
func InvalidPatterns(message string, cause error) *SemidxError {
	return New(ErrCodeInvalidPattern, message, cause)
}

// EmbeddingError creates an embedding-generation error.
func EmbeddingError(message string, cause error) *SemidxError {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// DeserializationError creates a persisted-data parsing error.
func DeserializationError(message string, cause error) *SemidxError {
	return New(ErrCodeFileCorrupt, message, cause)
}

// OperationFailed creates an operation-failure error.
func OperationFailed(message string, cause error) *SemidxError {
	return New(ErrCodeOperationFailed, message, cause)
}

// OperationNotFound creates a missing-operation lookup error.
func OperationNotFound(id string) *SemidxError {
	return New(ErrCodeOperationNotFound, fmt.Sprintf("operation not found: %s", id), nil).
		WithDetail("operation_id", id)
}

// ContextNotFound creates a missing-context lookup error.
func ContextNotFound(id string) *SemidxError {
	return New(ErrCodeContextNotFound, fmt.Sprintf("context not found: %s", id), nil).
		WithDetail("context_id", id)
}

// Cancelled creates a cancellation error.
func Cancelled(message string) *SemidxError {
	return New(ErrCodeCancelled, message, nil)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SemidxError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SemidxError {
	return New(ErrCodeOperationFailed, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error (or anything in its chain) is a SemidxError
// with the Retryable flag set.
func IsRetryable(err error) bool {
	var se *SemidxError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsCancelled reports whether the error represents a cancellation.
func IsCancelled(err error) bool {
	var se *SemidxError
	if errors.As(err, &se) {
		return se.Category == CategoryCancelled
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var se *SemidxError
	if errors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SemidxError.
// Returns empty string if not a SemidxError.
func GetCode(err error) string {
	var se *SemidxError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SemidxError.
// Returns empty string if not a SemidxError.
func GetCategory(err error) Category {
	var se *SemidxError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}
