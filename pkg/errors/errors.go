package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigParse    ErrorCode = "CONFIG_PARSE"
	ErrConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Repository errors
	ErrRepoOpen  ErrorCode = "REPO_OPEN"
	ErrRepoQuery ErrorCode = "REPO_QUERY"

	// Dispatch errors
	ErrNoStagedFiles ErrorCode = "NO_STAGED_FILES"
	ErrCommandSpawn  ErrorCode = "COMMAND_SPAWN"
	ErrCommandExit   ErrorCode = "COMMAND_EXIT"
)

// StagerunError represents a structured error with code and details
type StagerunError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *StagerunError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *StagerunError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *StagerunError) Is(target error) bool {
	var targetErr *StagerunError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new StagerunError with the given code and message
func New(code ErrorCode, message string) *StagerunError {
	return &StagerunError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new StagerunError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *StagerunError {
	return &StagerunError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a StagerunError
func Wrap(err error, code ErrorCode, message string) *StagerunError {
	if err == nil {
		return nil
	}
	return &StagerunError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *StagerunError {
	if err == nil {
		return nil
	}
	return &StagerunError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *StagerunError) WithDetail(key string, value interface{}) *StagerunError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var runErr *StagerunError
	if errors.As(err, &runErr) {
		return runErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a StagerunError
func GetErrorCode(err error) ErrorCode {
	var runErr *StagerunError
	if errors.As(err, &runErr) {
		return runErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a StagerunError
func GetErrorDetails(err error) map[string]interface{} {
	var runErr *StagerunError
	if errors.As(err, &runErr) {
		return runErr.Details
	}
	return nil
}
