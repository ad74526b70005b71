package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by a service wraps one of them; anything
// else reaching the HTTP boundary is reported as an internal error.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrAlreadyExists = errors.New("already exists")
	ErrNoAccess      = errors.New("no access")
)

// Error is a classified failure whose message is safe to return to clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func Validation(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func AlreadyExists(format string, args ...interface{}) error {
	return newError(ErrAlreadyExists, format, args...)
}

func NoAccess(format string, args ...interface{}) error {
	return newError(ErrNoAccess, format, args...)
}

// HTTPStatus maps an error onto the response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNoAccess):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message of err. Unclassified errors
// are hidden behind a generic message.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	if HTTPStatus(err) != http.StatusInternalServerError {
		return err.Error()
	}
	return "internal server error"
}
