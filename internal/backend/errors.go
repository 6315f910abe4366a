package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrAlgorithmNotFound is returned when the provider has no such algorithm.
var ErrAlgorithmNotFound = errors.New("algorithm not found")

// ExecutionError is an algorithm failure reported by the execution service
// in a well-formed response ({"error": true, "message": ...}).
type ExecutionError struct {
	Algorithm string
	Message   string
}

func (e *ExecutionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("algorithm %s failed", e.Algorithm)
	}
	return fmt.Sprintf("algorithm %s failed: %s", e.Algorithm, e.Message)
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	// Message is the "message" field of the error body, if any.
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsRetryable reports whether the status is worth retrying.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// NoResponseError wraps a transport failure: the request was sent but no
// response arrived.
type NoResponseError struct {
	Op  string
	Err error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("%s: no response: %v", e.Op, e.Err)
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is likely transient.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.IsRetryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var nr *NoResponseError
	return errors.As(err, &nr)
}

// UserMessage turns a backend error into text fit for the error panel. The
// server's own message wins; otherwise the status code or the transport
// failure is described.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		if ee.Message != "" {
			return ee.Message
		}
		return "The algorithm failed without an error message."
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("Server error (%d).", se.StatusCode)
	}
	if errors.Is(err, ErrAlgorithmNotFound) {
		return "Algorithm not found."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The server did not respond in time. Try again."
	}
	var nr *NoResponseError
	var ue *url.Error
	var ne net.Error
	if errors.As(err, &nr) || errors.As(err, &ue) || errors.As(err, &ne) {
		return "No response from the server. Check your connection."
	}
	return err.Error()
}
