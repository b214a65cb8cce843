package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of API failures.
type ErrorClass string

const (
	// ErrorClassUnauthorized represents a rejected or missing access token (401).
	ErrorClassUnauthorized ErrorClass = "unauthorized"

	// ErrorClassNotFound represents an unknown resource or endpoint (404).
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassTooManyRequests represents a transient capacity rejection (429).
	ErrorClassTooManyRequests ErrorClass = "too_many_requests"

	// ErrorClassUnexpected represents any other non-200 status.
	ErrorClassUnexpected ErrorClass = "unexpected"

	// ErrorClassDataInconsistency represents a lookup that did not return exactly one record.
	ErrorClassDataInconsistency ErrorClass = "data_inconsistency"
)

// Sentinel errors, one per ErrorClass. Use errors.Is against these.
var (
	ErrUnauthorized      = errors.New("unauthorized; please verify your access token")
	ErrNotFound          = errors.New("not found")
	ErrTooManyRequests   = errors.New("too many requests")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrDataInconsistency = errors.New("data inconsistency")
)

// APIError describes a failed HTTP exchange with the remote API.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Method     string
	URL        string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%v (status %d): %s %s", e.Err, e.StatusCode, e.Method, e.URL)
}

// Unwrap returns the sentinel for the error class.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status to its ErrorClass and sentinel.
// It must not be called for 200.
func classifyStatus(status int) (ErrorClass, error) {
	switch status {
	case http.StatusUnauthorized:
		return ErrorClassUnauthorized, ErrUnauthorized
	case http.StatusNotFound:
		return ErrorClassNotFound, ErrNotFound
	case http.StatusTooManyRequests:
		return ErrorClassTooManyRequests, ErrTooManyRequests
	default:
		return ErrorClassUnexpected, ErrUnexpectedStatus
	}
}

// ClassOf returns the ErrorClass carried by err, or "" if err is not an API failure.
func ClassOf(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return ErrorClassUnauthorized
	case errors.Is(err, ErrNotFound):
		return ErrorClassNotFound
	case errors.Is(err, ErrTooManyRequests):
		return ErrorClassTooManyRequests
	case errors.Is(err, ErrUnexpectedStatus):
		return ErrorClassUnexpected
	case errors.Is(err, ErrDataInconsistency):
		return ErrorClassDataInconsistency
	default:
		return ""
	}
}

// IsTooManyRequests reports whether err is a capacity rejection worth retrying.
func IsTooManyRequests(err error) bool {
	return errors.Is(err, ErrTooManyRequests)
}
