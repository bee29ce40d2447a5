// ABOUTME: Error taxonomy for the embedding and generation clients
// ABOUTME: Distinguishes transport, service, and malformed-response failures
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports a failure to reach the service at all: connection
// refused, DNS failure, or a timed-out request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports a response carrying a non-success status code.
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: service returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: service returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// MalformedResponseError reports a success response whose expected field is
// absent, empty, or not decodable.
type MalformedResponseError struct {
	Op    string
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: missing or empty %q field", e.Op, e.Field)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsCancelled reports whether err stems from an explicitly canceled caller
// context. Deadline expiry is deliberately not included: an elapsed timeout
// classifies as a transport failure, not a cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsRetryable classifies failures worth another attempt: transport failures
// and service errors that indicate overload or a transient server fault.
// Cancellations, client-side status codes, and malformed payloads are final.
func IsRetryable(err error) bool {
	if err == nil || IsCancelled(err) {
		return false
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode >= http.StatusInternalServerError ||
			serviceErr.StatusCode == http.StatusTooManyRequests
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
