package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying provisioning failures.
// Executors wrap these so the pipeline and the CLI can handle error
// categories uniformly without knowing which strategy produced them.
//
//	return fmt.Errorf("create project: %w", domain.ErrAuthorization)
var (
	// ErrValidation indicates missing or malformed input. Nothing was
	// sent over the network.
	ErrValidation = errors.New("validation error")

	// ErrAuthorization indicates the credential was rejected or lacks
	// the required scope (HTTP 401/403).
	ErrAuthorization = errors.New("authorization error")

	// ErrRemoteService indicates the remote endpoint reported a client or
	// server error unrelated to auth, or returned a body that could not
	// be parsed.
	ErrRemoteService = errors.New("remote service error")

	// ErrTransport indicates no HTTP status was obtained (DNS, TLS,
	// connection refused, timeout, cancellation).
	ErrTransport = errors.New("transport error")
)

// StageError describes why a single pipeline stage failed.
type StageError struct {
	// Stage is the stage that failed. Empty for failures raised before
	// any stage ran.
	Stage StageKey

	// StatusCode is the HTTP status code, or 0 when none was obtained.
	StatusCode int

	// StatusText is the HTTP status text, when available.
	StatusText string

	// Message is the human-readable failure reason surfaced in the run log.
	Message string

	// Err is one of the sentinel errors above, possibly wrapping a cause.
	Err error
}

func (e *StageError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("stage %s failed", e.Stage)
}

func (e *StageError) Unwrap() error { return e.Err }

// Kind returns the short label for the error category ("AuthorizationError",
// "TransportError", ...), used in logs and API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrAuthorization):
		return "AuthorizationError"
	case errors.Is(err, ErrRemoteService):
		return "RemoteServiceError"
	case errors.Is(err, ErrTransport):
		return "TransportError"
	default:
		return "Error"
	}
}
