// Package apperror defines the domain errors shared by every layer.
//
// Services and the report pipeline return these; only the HTTP handlers
// translate them into status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRender marks a fault while laying out a report document.
	ErrRender = errors.New("render error")
	// ErrEncoding marks a rendered artifact that could not be turned into a URI.
	// It is never retried: it points at a defect, not a transient condition.
	ErrEncoding = errors.New("encoding error")
)

type AppError struct {
	Err     error  // sentinel this error unwraps to
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: lower-level error that triggered this one
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and, when present, the underlying cause,
// so errors.Is works against either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing or invalid credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// RenderFailed wraps a document layout fault.
func RenderFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrRender,
		Message: fmt.Sprintf("rendering report: %v", cause),
		Cause:   cause,
	}
}

// EncodingFailed reports an artifact that cannot be encoded for transport.
func EncodingFailed(message string) *AppError {
	return &AppError{
		Err:     ErrEncoding,
		Message: message,
	}
}
