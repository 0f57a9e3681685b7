package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed error carrying the HTTP status it maps to.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Because returns a copy of e caused by err. An empty message keeps e's.
func (e *Error) Because(err error, message string) *Error {
	if message == "" {
		message = e.Message
	}
	return Wrap(err, e.Code, e.Status, message)
}

// Invalid reports a rejected request payload. The formatted detail is kept
// as the cause so clients see it after the generic message.
func Invalid(format string, args ...interface{}) *Error {
	return ErrInvalidRequest.Because(fmt.Errorf(format, args...), "")
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	var e *Error
	return target != nil && errors.As(err, &e) && e.Code == target.Code
}

// StatusOf returns the HTTP status for err, 500 for untyped errors.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return FromError(err).Status
}

// Errors of the update endpoint. Their messages are part of the wire format.
var (
	ErrMethodNotAllowed   = New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "Method not allowed")
	ErrInvalidRequest     = New("INVALID_REQUEST", http.StatusBadRequest, "Invalid request parameters")
	ErrUpdateFailed       = New("UPDATE_FAILED", http.StatusInternalServerError, "Failed to update contacts")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "contact store changed since it was read")
)

// Errors of the enveloped endpoints.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// ErrCacheMiss signals that a cache lookup found nothing.
var ErrCacheMiss = errors.New("cache miss")

// FromError returns the *Error in err's chain, or wraps err as internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies err, replacing the message when one is given.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
