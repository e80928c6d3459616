package types

import "fmt"

// ErrorCode represents a unified error code across the Ingress Router and Channel Processor.
type ErrorCode string

// Ingress-facing error codes.
const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrConsentRequired   ErrorCode = "CONSENT_REQUIRED"
	ErrCompanyNotFound   ErrorCode = "COMPANY_NOT_FOUND"
	ErrProjectInactive   ErrorCode = "PROJECT_INACTIVE"
	ErrChannelNotAllowed ErrorCode = "CHANNEL_NOT_ALLOWED"
	ErrInvalidChannel    ErrorCode = "INVALID_CHANNEL"
	ErrConfigurationErr  ErrorCode = "CONFIGURATION_ERROR"
	ErrSQSSendError      ErrorCode = "SQS_SEND_ERROR"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata. The Ingress Router
// reports failures to HTTP clients through its own Result type, and the Channel Processor logs
// plain errors; neither builds an Error.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from err, or "" if err is not a *Error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
