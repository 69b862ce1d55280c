package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrClientClosed is returned by generation calls made after Close.
var ErrClientClosed = errors.New("ollama: client closed")

// ErrStreamClosed is returned by Stream.Recv after the consumer closed the stream.
var ErrStreamClosed = errors.New("ollama: stream closed")

// errReadTimeout marks a streaming read that exceeded Options.ReadTimeout.
var errReadTimeout = errors.New("stream read timeout")

// ModelUnavailableError signals that the requested model failed the
// availability check. No generation request was sent.
type ModelUnavailableError struct{ Model string }

func (e ModelUnavailableError) Error() string {
	return fmt.Sprintf("model '%s' is not available. Please check the model name or pull the model first", e.Model)
}

// StatusCode maps to 404 for the HTTP layer.
func (e ModelUnavailableError) StatusCode() int { return http.StatusNotFound }

// ErrModelUnavailable constructs a ModelUnavailableError.
func ErrModelUnavailable(model string) error { return ModelUnavailableError{Model: model} }

// IsModelUnavailable reports whether err indicates a failed availability check.
func IsModelUnavailable(err error) bool {
	var e ModelUnavailableError
	return errors.As(err, &e)
}

// BackendStatusError is a non-2xx answer from the backend. Message is the
// backend's own error text when it sent one, otherwise a generic description
// that includes the status.
type BackendStatusError struct {
	Status  int
	Message string
}

func (e BackendStatusError) Error() string { return e.Message }

// StatusCode returns the backend status so it can be relayed as-is.
func (e BackendStatusError) StatusCode() int { return e.Status }

// IsBackendStatus reports whether err is a BackendStatusError.
func IsBackendStatus(err error) bool {
	var e BackendStatusError
	return errors.As(err, &e)
}

// TransportError wraps connection, DNS, timeout and body read failures.
type TransportError struct {
	Op  string
	Err error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("failed to reach ollama (%s): %v", e.Op, e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or read timeout.
func (e TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, errReadTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// StatusCode maps timeouts to 504 and everything else to 502.
func (e TransportError) StatusCode() int {
	if e.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var e TransportError
	return errors.As(err, &e)
}
