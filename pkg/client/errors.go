package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrCancelled is returned when the context is cancelled before or during a request.
	ErrCancelled = errors.New("request cancelled")
)

// ErrorKind classifies a failed API call. The same taxonomy drives retry
// decisions and caller-visible batch results.
type ErrorKind string

const (
	// KindAuthentication represents 401/403 credential failures. Never retried.
	KindAuthentication ErrorKind = "authentication"

	// KindInvalidRequest represents 400/404 and malformed-parameter failures. Never retried.
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindRateLimit represents 429 responses from the remote API.
	KindRateLimit ErrorKind = "rate_limit"

	// KindServer represents 5xx server errors.
	KindServer ErrorKind = "server"

	// KindNetwork represents timeouts, connection resets, and other transport failures.
	KindNetwork ErrorKind = "network"

	// KindParse represents a response body that does not match the expected schema.
	KindParse ErrorKind = "parse"

	// KindConfiguration represents a programmer/setup error. Fatal to the whole batch.
	KindConfiguration ErrorKind = "configuration"

	// KindCancelled represents external cancellation, not an API response.
	KindCancelled ErrorKind = "cancelled"
)

// APIError is the terminal failure of one logical request. Exactly this
// structure is surfaced to formatters; they never re-derive classification.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("domaintools %s error (status %d) after %d attempt(s): %s",
			e.Kind, e.StatusCode, e.Attempts, e.Message)
	}
	return fmt.Sprintf("domaintools %s error after %d attempt(s): %s",
		e.Kind, e.Attempts, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Fatal reports whether this error must abort an entire batch instead of
// being folded into a single item's result.
func (e *APIError) Fatal() bool {
	return e.Kind == KindConfiguration
}

// ClassifyStatus maps an HTTP status code to an error kind.
// Status codes below 400 never reach classification.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status >= 500:
		return KindServer
	default:
		// 400, 404 and the remaining 4xx family.
		return KindInvalidRequest
	}
}

// ClassifyTransportError maps a transport-level failure to an error kind.
// Per-attempt timeouts count as network failures, external cancellation does not.
func ClassifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindNetwork
	}

	// Connection refused, reset, DNS failures and friends.
	return KindNetwork
}

// Retryable reports whether a failure of the given kind may be retried.
func Retryable(kind ErrorKind) bool {
	switch kind {
	case KindRateLimit, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}
