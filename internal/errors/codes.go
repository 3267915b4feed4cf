package errors

import "net/http"

// Code identifies an error class.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "PERMISSION_DENIED"
	CodeInvalidState    Code = "FAILED_PRECONDITION"
	CodeLockTimeout     Code = "LOCK_TIMEOUT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeInternal        Code = "INTERNAL"
)

// String returns the code name.
func (c Code) String() string {
	return string(c)
}

// HTTPStatus maps the code to an HTTP response status. LockTimeout and
// Unavailable map to retryable statuses; the 4xx codes must not be
// retried with the same idempotency token.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidState:
		return http.StatusConflict
	case CodeLockTimeout:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
