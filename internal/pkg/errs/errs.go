package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"satorugram/internal/pkg/logx"
)

// CustomError is the error returned across service boundaries for anything a
// user should see. It carries a stable code, a display message and the HTTP
// status used when it reaches the JSON API.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing description.
	Message string

	// Status is the HTTP status code for this error.
	Status int

	// cause is the underlying error for internal failures; never shown to users.
	cause error
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("error %d (HTTP %d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *CustomError) Unwrap() error {
	return e.cause
}

// NewError builds a *CustomError for a predefined code. When the message
// template has printf verbs, details are used as its arguments. Unknown codes
// collapse to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %d", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error without placeholders; ignored.", "code", code)
		}
	}

	return &customErr
}

// Wrap builds a *CustomError for code that keeps err as its cause.
func Wrap(code int, err error) *CustomError {
	customErr := NewError(code)
	customErr.cause = err
	return customErr
}

// Is reports whether err is a *CustomError with the given code.
func Is(err error, code int) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}
