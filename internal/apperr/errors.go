// Package apperr holds the error taxonomy shared by the handlers. Every
// request failure wraps one of these sentinels so the HTTP layer maps errors
// to status codes in a single place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

type Error struct {
	sentinel error
	msg      string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.sentinel }

// Wrap binds a human-readable reason to a sentinel; errors.Is against the
// sentinel still matches while Error() stays client-presentable.
func Wrap(sentinel error, msg string) error {
	return &Error{sentinel: sentinel, msg: msg}
}

func Wrapf(sentinel error, format string, args ...any) error {
	return Wrap(sentinel, fmt.Sprintf(format, args...))
}

func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
