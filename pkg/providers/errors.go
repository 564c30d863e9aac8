package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed backend call. The engine treats every kind
// uniformly as a generation failure; the kind is kept for diagnostics and
// for collaborators that layer retry policies around a client.
type ErrorKind string

const (
	KindTransport       ErrorKind = "transport_error"
	KindRateLimited     ErrorKind = "rate_limited"
	KindAuth            ErrorKind = "auth_error"
	KindInvalidResponse ErrorKind = "invalid_response"
)

// APIError is a failed call to a provider API.
type APIError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s api error (%s, status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s api error (%s): %s", e.Provider, e.Kind, e.Message)
}

// kindForStatus maps an HTTP status code to an error kind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	default:
		return KindInvalidResponse
	}
}

// ErrorKindOf returns the classification of err, or KindTransport when err
// is not an APIError (connection refused, timeouts, and the like).
func ErrorKindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	return ErrorKindOf(err) == KindRateLimited
}
