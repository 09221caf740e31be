// Package apperr defines the error taxonomy shared by handlers and adapters.
//
// Every error that crosses a handler boundary carries a Code that maps to a
// single HTTP status, so translation happens in exactly one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for HTTP translation.
type Code string

const (
	// CodeValidation marks malformed client input (HTTP 422).
	CodeValidation Code = "validation_error"
	// CodeProvider marks a failed upstream LLM call (HTTP 502).
	CodeProvider Code = "provider_error"
	// CodeNotFound marks an unknown trace, session, or template (HTTP 404).
	CodeNotFound Code = "not_found"
	// CodeEvaluationParse marks judge output that could not be parsed into
	// a numeric score (HTTP 422).
	CodeEvaluationParse Code = "evaluation_parse_error"
	// CodeInternal marks unexpected failures (HTTP 500).
	CodeInternal Code = "internal_error"
)

// Error is a classified error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for the error's class.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeEvaluationParse:
		return http.StatusUnprocessableEntity
	case CodeProvider:
		return http.StatusBadGateway
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a validation error.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Provider wraps an upstream LLM failure.
func Provider(message string, cause error) *Error {
	return &Error{Code: CodeProvider, Message: message, Err: cause}
}

// NotFound creates a not-found error for the named resource.
func NotFound(resource, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// EvaluationParse wraps an unparsable judge response.
func EvaluationParse(message string, cause error) *Error {
	return &Error{Code: CodeEvaluationParse, Message: message, Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: cause}
}

// As extracts an *Error from an error chain, or wraps unknown errors as
// internal so callers always have a classified error to translate.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("unexpected error", err)
}

// IsNotFound reports whether err is classified as not-found.
func IsNotFound(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == CodeNotFound
}

// IsValidation reports whether err is classified as a validation error.
func IsValidation(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == CodeValidation
}

// IsProvider reports whether err is classified as a provider error.
func IsProvider(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == CodeProvider
}
