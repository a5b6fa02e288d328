// Package upstream defines the shared error classification for outbound
// provider calls. Both the astrology fact source and the rewriter map their
// transport-level failures onto these kinds so callers can branch with
// errors.As instead of string matching.
package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies an outbound-call failure.
type Kind int

const (
	// KindUnknown is a generic upstream failure that fits no other kind.
	KindUnknown Kind = iota
	// KindConfiguration means a required credential or setting is missing.
	// Detected before any network call and never retried.
	KindConfiguration
	// KindAuth means the provider rejected our credential.
	KindAuth
	// KindQuotaExceeded means the provider signaled rate/quota exhaustion.
	// Retrying immediately will not help.
	KindQuotaExceeded
	// KindConnectivity is a transient network or timeout fault. Safe to
	// retry on a subsequent request.
	KindConnectivity
	// KindMalformedResponse means the response shape violated the expected
	// contract. Never silently coerced into fabricated data.
	KindMalformedResponse
)

// String returns a stable code suitable for logs and error payloads.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "CONFIG_ERROR"
	case KindAuth:
		return "UPSTREAM_AUTH"
	case KindQuotaExceeded:
		return "UPSTREAM_QUOTA"
	case KindConnectivity:
		return "UPSTREAM_UNAVAILABLE"
	case KindMalformedResponse:
		return "UPSTREAM_MALFORMED"
	default:
		return "UPSTREAM_ERROR"
	}
}

// Error is a classified failure from an outbound provider call.
type Error struct {
	Kind     Kind
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified upstream error.
func NewError(kind Kind, provider, op string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Op: op, Err: err}
}

// KindOf extracts the classification from err, or KindUnknown if err is not
// an upstream error.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == kind
}
