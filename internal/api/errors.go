package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the session layer branches on.
var (
	// ErrUnauthorized marks a 401 response. It is consumed by the
	// refresh-and-retry protocol and should never reach the UI raw.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired is returned when credential refresh itself failed.
	// The session has already been cleared when a caller sees this.
	ErrSessionExpired = errors.New("session expired")
)

// TransientError wraps a transport-level failure: no response was received
// (connection refused, timeout, DNS). Remote collection reads fall back to
// the device-local copy on this class.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("network unavailable: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// ValidationError is a 4xx response other than 401. The server-provided
// message is surfaced verbatim and the operation is not retried.
type ValidationError struct {
	Status  int
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected (HTTP %d)", e.Status)
}

// ServerError is a 5xx response. Collections treat it like a transient
// outage for read fallback purposes.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

// IsTransient reports whether err represents an outage the client may
// degrade around (no response, or a 5xx), as opposed to a definitive
// rejection of the request.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var se *ServerError
	return errors.As(err, &se)
}
