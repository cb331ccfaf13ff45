package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeConfig   = "CONFIG_ERROR"
	ErrCodeEngine   = "ENGINE_ERROR"
	ErrCodeInput    = "INPUT_ERROR"
	ErrCodeInternal = "INTERNAL_ERROR"
)

// AppError represents a fatal application error tagged with a code
type AppError struct {
	Code    string // Error code (e.g., "ENGINE_ERROR", "CONFIG_ERROR")
	Message string // Human-readable error message
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new CONFIG_ERROR
func NewConfigError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: fmt.Sprintf("invalid configuration for %s: %s", field, reason),
	}
}

// NewEngineError creates a new ENGINE_ERROR wrapping err
func NewEngineError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeEngine,
		Message: message,
		Err:     err,
	}
}

// NewInputError creates a new INPUT_ERROR wrapping err
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInput,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
