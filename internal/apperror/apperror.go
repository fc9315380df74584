// Package apperror defines the error taxonomy shared by the authorization
// engine, the services and the HTTP layer. Every failure a client can see is
// an *AppError whose Kind is one of the sentinel values below, so callers can
// classify with errors.Is regardless of how deep the error was produced.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("conflict")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrServer          = errors.New("server error")
)

// AppError carries a client-facing message, its kind and the underlying cause
// (if any). The cause is never rendered to clients.
type AppError struct {
	Kind    error  // one of the Err* sentinels
	Message string // human-readable message
	Err     error  // optional cause
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Kind == ErrServer {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Unauthorized(msg string) *AppError { return &AppError{Kind: ErrUnauthorized, Message: msg} }

func Forbidden(msg string) *AppError { return &AppError{Kind: ErrForbidden, Message: msg} }

func NotFound(msg string) *AppError { return &AppError{Kind: ErrNotFound, Message: msg} }

func BadRequest(msg string) *AppError { return &AppError{Kind: ErrBadRequest, Message: msg} }

func Conflict(msg string) *AppError { return &AppError{Kind: ErrConflict, Message: msg} }

func PayloadTooLarge(msg string) *AppError {
	return &AppError{Kind: ErrPayloadTooLarge, Message: msg}
}

// Server wraps an unexpected backend failure (database, cache, broker).
func Server(msg string, err error) *AppError {
	return &AppError{Kind: ErrServer, Message: msg, Err: err}
}

// Notfoundf is a convenience for the many "<resource> with id <id> not found" messages.
func Notfoundf(format string, args ...any) *AppError {
	return NotFound(fmt.Sprintf(format, args...))
}

// Is reports whether err is an AppError (or wraps one) of the given kind.
func Is(err, kind error) bool {
	var ae *AppError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Kind == kind
}
