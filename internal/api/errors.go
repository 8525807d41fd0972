package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized means the bearer token was rejected (expired session).
var ErrUnauthorized = errors.New("session expired")

// APIError is a response the server produced on purpose: a validation
// rejection or a server-side failure, with the message it sent back.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// TransportError is a request that never produced an HTTP response:
// timeout, DNS failure, connection refused.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsServerRejected reports whether the server refused the request with
// a client-error status (validation failure on the remote side).
func IsServerRejected(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode >= 400 && ae.StatusCode < 500
}
