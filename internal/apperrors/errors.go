// Package apperrors defines the error kinds surfaced to API callers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	NotFound     Kind = "NOT_FOUND"
	Forbidden    Kind = "FORBIDDEN"
	Conflict     Kind = "CONFLICT"
	InvalidInput Kind = "INVALID_INPUT"
	Unauthorized Kind = "UNAUTHORIZED"
	Internal     Kind = "INTERNAL"
)

// AppError carries a machine-checkable kind and a human-readable message.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the kind onto an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to err. An err that already is an *AppError is returned unchanged.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotFoundf(format string, args ...interface{}) *AppError {
	return Newf(NotFound, format, args...)
}

func Forbiddenf(format string, args ...interface{}) *AppError {
	return Newf(Forbidden, format, args...)
}

func Conflictf(format string, args ...interface{}) *AppError {
	return Newf(Conflict, format, args...)
}

func Invalidf(format string, args ...interface{}) *AppError {
	return Newf(InvalidInput, format, args...)
}

func Unauthorizedf(format string, args ...interface{}) *AppError {
	return Newf(Unauthorized, format, args...)
}

// KindOf reports the kind of err; errors without one are Internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
