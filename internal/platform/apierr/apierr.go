package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable error code carried in every error envelope.
type Code string

const (
	CodeUnauthorized   Code = "unauthorized"
	CodeInvalidInput   Code = "invalid_input"
	CodeThreadNotFound Code = "thread_not_found"
	CodeNotParticipant Code = "not_participant"
	CodeRateLimited    Code = "rate_limited"
	CodeServerError    Code = "server_error"
)

type Error struct {
	Status int
	Code   Code
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return string(e.Code)
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code Code, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg))
}

// Forbidden is an authenticated caller acting on ids it does not own.
func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, CodeUnauthorized, errors.New(msg))
}

func InvalidInput(msg string) *Error {
	return New(http.StatusBadRequest, CodeInvalidInput, errors.New(msg))
}

func ThreadNotFound() *Error {
	return New(http.StatusNotFound, CodeThreadNotFound, errors.New("thread not found"))
}

func NotParticipant() *Error {
	return New(http.StatusForbidden, CodeNotParticipant, errors.New("not a participant of this thread"))
}

func RateLimited() *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, errors.New("too many requests"))
}

// Server wraps a store or transport failure. The cause is kept for logs only.
func Server(cause error) *Error {
	return New(http.StatusInternalServerError, CodeServerError, cause)
}

// As extracts an *Error from err; anything else becomes a server error.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Server(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
