package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "VALIDATION_ERROR"
	ErrorTypeBackendMismatch ErrorType = "BACKEND_MISMATCH"
	ErrorTypeIndexingFailure ErrorType = "INDEXING_FAILURE"
	ErrorTypeOutOfRange      ErrorType = "OUT_OF_RANGE"
	ErrorTypeCorruptEncode   ErrorType = "CORRUPT_ENCODE"
	ErrorTypeInternal        ErrorType = "INTERNAL_ERROR"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// AppError represents an application error with additional context.
type AppError struct {
	Type     ErrorType              `json:"type"`
	Message  string                 `json:"message"`
	Code     string                 `json:"code,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	ExitCode int                    `json:"-"`
	Err      error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:     errType,
		Message:  message,
		ExitCode: ExitFailure,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:     errType,
		Message:  message,
		ExitCode: ExitFailure,
		Err:      err,
	}
}

// Common error constructors.

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

// NewBackendMismatchError creates an error for an index cache the backend
// cannot use (foreign backend, old format or stale media).
func NewBackendMismatchError(message string) *AppError {
	return New(ErrorTypeBackendMismatch, message)
}

// WrapIndexingFailure wraps an error as a fatal indexing failure.
func WrapIndexingFailure(err error, message string) *AppError {
	return Wrap(err, ErrorTypeIndexingFailure, message)
}

// NewOutOfRangeError creates an error for a frame index outside [0, frameCount).
func NewOutOfRangeError(index, frameCount int) *AppError {
	return New(ErrorTypeOutOfRange, fmt.Sprintf("frame %d is outside [0, %d)", index, frameCount)).
		WithDetails(map[string]interface{}{
			"index":       index,
			"frame_count": frameCount,
		})
}

// WrapCorruptEncodeError marks an encode that ran out of frames while
// looking for a B picture.
func WrapCorruptEncodeError(err error) *AppError {
	return Wrap(err, ErrorTypeCorruptEncode, "encode file is likely an incomplete or corrupted encode")
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// WrapInternalError wraps an error as internal error.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message)
}

// IsAppError checks if an error is or wraps an AppError.
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError extracts the outermost AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether any AppError in the chain has the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Type == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
