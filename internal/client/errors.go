package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the backend.  Message is the server's
// own error text when it sent one, so it can be shown to the operator
// as-is.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

// TransportError means no HTTP answer was received at all: DNS, refused
// connection, timeout, or an undecodable body.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsNotFound reports a 404 answer.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// IsUnsupported reports that the backend does not offer the endpoint:
// 404, 405 or 501.  Batch calls fall back to per-item calls on it.
func IsUnsupported(err error) bool {
	switch StatusOf(err) {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}

// IsUnauthorized reports a 401 answer.
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }
