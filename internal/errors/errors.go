package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeDecode            ErrorType = "decode"
	ErrorTypeEngineUnavailable ErrorType = "engine_unavailable"
	ErrorTypeEngineRuntime     ErrorType = "engine_runtime"
	ErrorTypeOutputMissing     ErrorType = "output_missing"
	ErrorTypeRead              ErrorType = "read"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewDecodeError creates an error for an image payload that could not be decoded
func NewDecodeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDecode,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewEngineUnavailableError creates an error for a delineation engine that is
// not loadable. This is a startup-class condition: it is not retryable per
// request and stays until the process is remediated.
func NewEngineUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeEngineUnavailable,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewEngineRuntimeError creates an error for a fault raised by the engine
// while it was running
func NewEngineRuntimeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeEngineRuntime,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewOutputMissingError creates an error for an engine run that returned
// success without producing its declared output artifact. Kept distinct from
// a runtime fault so the two can be told apart in diagnostics.
func NewOutputMissingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeOutputMissing,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewReadError creates an error for an output artifact that was present but
// unreadable or corrupt
func NewReadError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRead,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
