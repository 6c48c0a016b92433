// Package newserr defines the failure kinds surfaced by the news pipeline.
package newserr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// UpstreamUnavailable covers transport failures, timeouts and undecodable responses.
	UpstreamUnavailable Kind = iota + 1
	// UpstreamError means the provider answered and rejected the request.
	UpstreamError
	// CacheUnavailable means the cache backing could not be read or written.
	CacheUnavailable
)

func (k Kind) String() string {
	switch k {
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case UpstreamError:
		return "upstream_error"
	case CacheUnavailable:
		return "cache_unavailable"
	default:
		return "unknown"
	}
}

// Error is a tagged failure. Message is what callers get to see.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind != UpstreamError
}

// Unavailable wraps a transport level upstream failure.
func Unavailable(err error) *Error {
	return &Error{Kind: UpstreamUnavailable, Err: err}
}

// UnavailableMsg is Unavailable with a caller-safe message.
func UnavailableMsg(message string, err error) *Error {
	return &Error{Kind: UpstreamUnavailable, Message: message, Err: err}
}

// Upstream builds an error carrying the provider's message.
func Upstream(message string) *Error {
	return &Error{Kind: UpstreamError, Message: message}
}

// Cache wraps a cache backing failure.
func Cache(op string, err error) *Error {
	return &Error{Kind: CacheUnavailable, Err: fmt.Errorf("cache %s: %w", op, err)}
}

// KindOf extracts the Kind of err, or 0 when err is not tagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
