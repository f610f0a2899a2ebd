// Package apierror classifies failures of the upstream metadata providers.
package apierror

import (
	"errors"
	"fmt"
)

// Failure kinds. Match with errors.Is.
var (
	// ErrNetwork means no response was received (transport failure, timeout).
	ErrNetwork = errors.New("network error")
	// ErrNotFound means the provider does not know the identifier.
	ErrNotFound = errors.New("not found")
	// ErrMalformedResponse means a response arrived but required fields are missing or mistyped.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUpstream means the provider answered with a non-success status other than 404
	// (bad credentials, rate limiting, server errors).
	ErrUpstream = errors.New("upstream error")
	// ErrThrottled means the request was never sent because the local rate
	// limit could not admit it in time. It says nothing about the provider.
	ErrThrottled = errors.New("throttled")
)

// Error is a classified provider failure.
type Error struct {
	Provider string
	Kind     error
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns a classified error for provider.
func New(provider string, kind, cause error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: cause}
}

// Network wraps a transport failure.
func Network(provider string, cause error) *Error {
	return New(provider, ErrNetwork, cause)
}

// NotFound reports an unknown identifier.
func NotFound(provider string, cause error) *Error {
	return New(provider, ErrNotFound, cause)
}

// Malformed reports a response that could not be interpreted.
func Malformed(provider string, cause error) *Error {
	return New(provider, ErrMalformedResponse, cause)
}

// Upstream reports a provider-side rejection.
func Upstream(provider string, cause error) *Error {
	return New(provider, ErrUpstream, cause)
}

// Throttled reports a request held back by the local rate limiter.
func Throttled(provider string, cause error) *Error {
	return New(provider, ErrThrottled, cause)
}

// KindOf returns the failure kind of err, or nil when err is not classified.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrMalformedResponse, ErrThrottled, ErrNetwork, ErrUpstream} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
