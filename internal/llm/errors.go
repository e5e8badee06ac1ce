package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a completion failure.
type ErrorKind string

const (
	// KindTransport is a network or connection failure.
	KindTransport ErrorKind = "transport"
	// KindStatus is a non-2xx response from the provider.
	KindStatus ErrorKind = "status"
	// KindEmpty is a successful response without any text.
	KindEmpty ErrorKind = "empty"
	// KindTimeout is a call that exceeded its per-call deadline.
	KindTimeout ErrorKind = "timeout"
)

// Error is the typed failure returned by every Completer in this package.
type Error struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s error (HTTP %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Provider, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call may succeed: transport
// failures, timeouts, rate limiting and server errors are retryable.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindTimeout:
		return true
	case KindStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// IsRetryable reports whether err wraps a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

func statusError(provider string, code int, err error) *Error {
	return &Error{Kind: KindStatus, Provider: provider, StatusCode: code, Err: err}
}

func transportError(provider string, err error) *Error {
	return &Error{Kind: KindTransport, Provider: provider, Err: err}
}

func emptyError(provider string) *Error {
	return &Error{Kind: KindEmpty, Provider: provider, Err: errors.New("no text in response")}
}
