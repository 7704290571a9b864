package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP status and short machine code across service
// boundaries so handlers can map failures without string matching.
type Error struct {
	Status int
	Code   string
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
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, "unauthorized", err)
}

func BadRequest(err error) *Error {
	return New(http.StatusBadRequest, "bad_request", err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

// Conflict keeps status 400 for wire compatibility with existing clients of
// the evaluate endpoint.
func Conflict(err error) *Error {
	return New(http.StatusBadRequest, "conflict", err)
}

func ServiceUnavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, "service_unavailable", err)
}

func UpstreamError(err error) *Error {
	return New(http.StatusInternalServerError, "upstream_error", err)
}

func EvaluationError(err error) *Error {
	return New(http.StatusInternalServerError, "evaluation_error", err)
}

// From extracts an *Error from err, or wraps it as a generic 500.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, "internal", err)
}
