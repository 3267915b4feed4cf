// Package errors provides structured errors with stable codes so the
// engine can classify failures (retryable vs. not) and the HTTP layer
// can map them to status codes without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Error carries a code, a human-readable message and an optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err, preserving its code if it already carries one.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	code := CodeInternal
	var existing *Error
	if errors.As(err, &existing) {
		code = existing.Code
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps err with a formatted message.
func Wrapf(err error, format string, args ...any) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps err under a specific code.
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// CodeOf extracts the code from err, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Constructor helpers for the codes the engine raises.

// NotFound creates a NOT_FOUND error.
func NotFound(message string) *Error { return New(CodeNotFound, message) }

// NotFoundf creates a NOT_FOUND error with a formatted message.
func NotFoundf(format string, args ...any) *Error { return Newf(CodeNotFound, format, args...) }

// InvalidArgument creates an INVALID_ARGUMENT error.
func InvalidArgument(message string) *Error { return New(CodeInvalidArgument, message) }

// InvalidArgumentf creates an INVALID_ARGUMENT error with a formatted message.
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// Forbidden creates a PERMISSION_DENIED error.
func Forbidden(message string) *Error { return New(CodeForbidden, message) }

// InvalidState creates a FAILED_PRECONDITION error, used for sessions
// that are paused or already completed.
func InvalidState(message string) *Error { return New(CodeInvalidState, message) }

// InvalidStatef creates a FAILED_PRECONDITION error with a formatted message.
func InvalidStatef(format string, args ...any) *Error {
	return Newf(CodeInvalidState, format, args...)
}

// LockTimeout creates a LOCK_TIMEOUT error. Retryable by the caller.
func LockTimeout(message string) *Error { return New(CodeLockTimeout, message) }

// Unavailable creates an UNAVAILABLE error for upstream failures.
func Unavailable(message string) *Error { return New(CodeUnavailable, message) }

// Internal creates an INTERNAL error.
func Internal(message string) *Error { return New(CodeInternal, message) }

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsRetryable reports whether the caller may safely retry with the
// same idempotency token.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeLockTimeout, CodeUnavailable:
		return true
	default:
		return false
	}
}
