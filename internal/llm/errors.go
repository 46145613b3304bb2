package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthentication matches APIErrors for rejected credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrBadRequest matches APIErrors for malformed requests.
	ErrBadRequest = errors.New("malformed request")
	// ErrRateLimited matches APIErrors for throttled requests.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx response from the completion service.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("completion service returned %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("completion service returned %d: %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsRetryable reports whether a failed completion may succeed on retry.
// Authentication and malformed-request failures never do, nor do
// cancelled contexts. Extraction and schema failures are not transport
// errors and are never retried here.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrBadRequest):
		return false
	}
	var ee *ExtractionError
	var se *SchemaError
	if errors.As(err, &ee) || errors.As(err, &se) {
		return false
	}
	return true
}
