// Package apperr defines the CLI error taxonomy. Every failure the tool
// reports carries an exit code, a message, and optional structured details.
package apperr

import (
	"errors"
	"strings"
)

// Exit codes. The root command maps the error's code to the process
// exit status.
const (
	CodeGeneral     = 1
	CodeNotFound    = 2
	CodeAuth        = 3
	CodeRateLimited = 4
)

// Error is a CLI failure with an exit code and optional API details.
type Error struct {
	Code    int
	Message string

	// Details holds structured context from the API response
	// (status, reason, request id) for --output json consumers.
	Details map[string]any

	// RetryAfter is the server-suggested wait in seconds, when the
	// failure was a rate limit with a Retry-After header.
	RetryAfter int
}

func (e *Error) Error() string { return e.Message }

// General returns a code-1 error.
func General(message string) *Error {
	return &Error{Code: CodeGeneral, Message: message}
}

// NotFound returns a code-2 error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Auth returns a code-3 error.
func Auth(message string) *Error {
	return &Error{Code: CodeAuth, Message: message}
}

// RateLimited returns a code-4 error.
func RateLimited(message string) *Error {
	return &Error{Code: CodeRateLimited, Message: message}
}

// WithDetails attaches structured context and returns the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithRetryAfter records the server-suggested wait and returns the error.
func (e *Error) WithRetryAfter(seconds int) *Error {
	e.RetryAfter = seconds
	return e
}

// ExitCode extracts the exit code from err, defaulting to 1.
func ExitCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeGeneral
}

// Retryable reports whether err is worth retrying: rate limits,
// timeouts, and transient upstream failures.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Code == CodeRateLimited {
			return true
		}
		if appErr.Code == CodeAuth || appErr.Code == CodeNotFound {
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit", "429", "timeout", "connection",
		"temporarily unavailable", "502", "503", "504",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RetryAfter extracts the server-suggested wait in seconds, if any.
func RetryAfter(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.RetryAfter
	}
	return 0
}
