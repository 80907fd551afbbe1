package errors

import (
	stderrors "errors"
	"fmt"
)

// DocError is the structured error type for docindex.
// It carries enough context for logging, CLI output, and JSON reports.
type DocError struct {
	// Code is the unique error code (e.g., "ERR_601_PUBLISH_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is derived from the code.
	Category Category

	// Severity is derived from the code.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *DocError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DocError) Unwrap() error {
	return e.Cause
}

// Is matches another DocError by code.
func (e *DocError) Is(target error) bool {
	if t, ok := target.(*DocError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *DocError) WithDetail(key, value string) *DocError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *DocError) WithSuggestion(suggestion string) *DocError {
	e.Suggestion = suggestion
	return e
}

// New creates a DocError. Category and severity are derived from the code.
func New(code string, message string, cause error) *DocError {
	return &DocError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a DocError from an existing error, reusing its message.
func Wrap(code string, err error) *DocError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error.
func ConfigError(message string, cause error) *DocError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O error.
func IOError(message string, cause error) *DocError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ParseError creates an HTML parse error.
func ParseError(message string, cause error) *DocError {
	return New(ErrCodeHTMLParse, message, cause)
}

// PublishError creates a publish error.
func PublishError(message string, cause error) *DocError {
	return New(ErrCodePublishFailed, message, cause)
}

// NetworkError creates a network error.
func NetworkError(message string, cause error) *DocError {
	return New(ErrCodeNetworkUnavailable, message, cause)
}

// ValidationError creates a validation error.
func ValidationError(message string, cause error) *DocError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *DocError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal reports whether err (or anything it wraps) is a fatal DocError.
func IsFatal(err error) bool {
	var de *DocError
	if stderrors.As(err, &de) {
		return de.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the code of the first DocError in the chain.
func GetCode(err error) string {
	var de *DocError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// GetCategory extracts the category of the first DocError in the chain.
func GetCategory(err error) Category {
	var de *DocError
	if stderrors.As(err, &de) {
		return de.Category
	}
	return ""
}
