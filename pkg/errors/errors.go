// Package errors provides application error types that carry an HTTP
// status alongside a client-safe message.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure conditions. Services return these
// (or errors wrapping them) and the HTTP layer maps them to responses.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrOperationFailed = errors.New("operation failed")
)

// AppError is an error with an associated HTTP status code and a message
// safe to return to clients. The wrapped Err, if any, holds internal
// detail for logging.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InvalidInput returns a 400 error for malformed or invalid request data.
func InvalidInput(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message, Err: ErrInvalidInput}
}

// NotFound returns a 404 error for a missing resource.
func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// Conflict returns a 409 error for a uniqueness or state conflict.
func Conflict(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: message, Err: ErrConflict}
}

// Unauthorized returns a 401 error for failed authentication.
func Unauthorized(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: message, Err: ErrUnauthorized}
}

// OperationFailed returns a 500 error for a domain operation that could
// not complete, wrapping the underlying cause.
func OperationFailed(message string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: message, Err: errors.Join(ErrOperationFailed, err)}
}

// Internal returns a 500 error wrapping an unexpected failure. The client
// message is generic so internal detail never leaks.
func Internal(err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// HTTPStatus resolves the HTTP status code for an error. AppError values
// carry their own status; sentinels map to their conventional codes;
// anything else is a 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message resolves the client-safe message for an error. Non-AppError
// values get a generic message so internals never reach the client.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrConflict):
		return "resource conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal server error"
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
