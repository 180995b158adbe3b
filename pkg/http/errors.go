package http

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error a handler hands to the client as-is.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithParam attaches a detail the client can render.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// ErrorRule maps a sentinel error onto a client-facing status and code.
type ErrorRule struct {
	Target error
	Status int
	Code   string
}

// NotFound is the usual rule for lookup sentinels.
func NotFound(target error) ErrorRule {
	return ErrorRule{Target: target, Status: http.StatusNotFound, Code: "ERR_NOT_FOUND"}
}

// BadRequest is the usual rule for input sentinels.
func BadRequest(target error) ErrorRule {
	return ErrorRule{Target: target, Status: http.StatusBadRequest, Code: "ERR_BAD_REQUEST"}
}

// MapError converts err into an AppError. An AppError passes through, otherwise the
// first rule whose target matches wins. Anything else is ERR_INTERNAL and keeps its
// message out of the response.
func MapError(err error, rules ...ErrorRule) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, r := range rules {
		if errors.Is(err, r.Target) {
			return &AppError{Code: r.Code, Message: err.Error(), Status: r.Status, Err: err}
		}
	}
	return &AppError{
		Code:    "ERR_INTERNAL",
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}
