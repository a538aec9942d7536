// Package apperr is the error taxonomy shared by the service and HTTP layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindConflict
	KindRateLimited
	KindUnavailable
)

// Error carries a client-safe message; Err is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message, nil) }
func Forbidden(message string) *Error       { return New(KindForbidden, message, nil) }
func NotFound(message string) *Error        { return New(KindNotFound, message, nil) }
func Validation(message string) *Error      { return New(KindValidation, message, nil) }
func Conflict(message string) *Error        { return New(KindConflict, message, nil) }
func RateLimited(message string) *Error     { return New(KindRateLimited, message, nil) }
func Unavailable(message string) *Error     { return New(KindUnavailable, message, nil) }

// Internal hides the cause behind a generic message.
func Internal(err error) *Error {
	return New(KindUnexpected, "internal server error", err)
}

// KindOf returns KindUnexpected for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

// Status maps an error to its HTTP status and client message.
func Status(err error) (int, string) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, "internal server error"
	}
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized, e.Message
	case KindForbidden:
		return http.StatusForbidden, e.Message
	case KindNotFound:
		return http.StatusNotFound, e.Message
	case KindValidation:
		return http.StatusBadRequest, e.Message
	case KindConflict:
		return http.StatusConflict, e.Message
	case KindRateLimited:
		return http.StatusTooManyRequests, e.Message
	case KindUnavailable:
		return http.StatusServiceUnavailable, e.Message
	}
	return http.StatusInternalServerError, "internal server error"
}
