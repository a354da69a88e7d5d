package apcloudy

import (
	"errors"
	"fmt"
)

// Sentinel errors for the broad error classes returned by the APCloudy API.
// Use errors.Is to classify an error regardless of which service raised it.
var (
	// ErrAuthentication indicates a missing or invalid API key.
	ErrAuthentication = errors.New("apcloudy: authentication failed")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("apcloudy: resource not found")
	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("apcloudy: rate limit exceeded")
)

// APIError is the base error for every failure originating from the
// APCloudy platform or the transport beneath it. StatusCode is zero when
// the request never produced an HTTP response (network failure, retry
// exhaustion); in that case the underlying cause is available via Unwrap.
type APIError struct {
	StatusCode int
	Message    string
	err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("apcloudy: request failed: %s", e.Message)
	}
	return fmt.Sprintf("apcloudy: API error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the sentinel class or underlying transport error.
func (e *APIError) Unwrap() error {
	return e.err
}

// IsAuthentication checks if the error indicates an authentication failure.
func (e *APIError) IsAuthentication() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsNotFound checks if the error indicates a not found response.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsRateLimited checks if the error indicates the rate limit was hit.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// NotFoundError identifies which resource a 404 referred to. It wraps
// ErrNotFound so callers can match either narrowly or broadly.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("apcloudy: %s %s not found", e.Resource, e.ID)
}

// Unwrap marks the error as a not-found class error.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError is raised locally for malformed input before any network
// round trip is made.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("apcloudy: invalid %s: %s", e.Field, e.Reason)
}

// notFound converts a dispatcher 404 into a NotFoundError for the given
// resource, leaving every other error untouched.
func notFound(err error, resource, id string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}
