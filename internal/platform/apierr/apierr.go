package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeTextRequired = "text_required"
	CodeTextTooLong  = "text_too_long"
	CodeInvalidID    = "invalid_id"
	CodeNotFound     = "not_found"
	CodeInternal     = "internal_error"

	CodeReclusterInProgress = "recluster_in_progress"
)

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

func BadRequest(code, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(msg))
}

// As extracts an *Error from err, or reports false.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}
