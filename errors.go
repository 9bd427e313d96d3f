package qstash

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for use with errors.Is.
var (
	ErrUnauthorized = errors.New("qstash: invalid or missing token")
	ErrNotFound     = errors.New("qstash: resource not found")
	ErrRateLimited  = errors.New("qstash: rate limit exceeded")
)

// ConfigError reports invalid construction or request arguments, such as an
// empty token or a destination URL that cannot be parsed. It is returned
// before any network I/O happens.
type ConfigError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "qstash: invalid configuration: " + e.Reason
}

// TransportError reports a network-level failure: the request never produced
// an HTTP response (connection refused, DNS failure, context cancellation).
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return "qstash: request failed: " + e.Err.Error()
}

// Unwrap returns the underlying cause, so context errors remain matchable
// with errors.Is(err, context.Canceled) and friends.
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that was not the JSON shape the API
// contract promises. Body holds the raw bytes for diagnosis.
type DecodeError struct {
	Err  error
	Body []byte
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return "qstash: decode response: " + e.Err.Error()
}

// Unwrap returns the underlying JSON error.
func (e *DecodeError) Unwrap() error { return e.Err }

// APIError is a non-2xx HTTP response from the QStash API.
// It supports errors.Is and errors.As for idiomatic Go error handling.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the server-provided error description, parsed from the
	// response body. Falls back to the raw body when the body is not the
	// standard {"error": "..."} envelope.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("qstash: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("qstash: HTTP %d", e.StatusCode)
}

// Is enables errors.Is matching against sentinel errors.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrUnauthorized
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusTooManyRequests:
		return target == ErrRateLimited
	}
	return false
}

// Unwrap returns the sentinel error corresponding to the status code.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}
