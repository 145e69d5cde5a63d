package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotCached indicates the requested collection has never been cached
	// or has expired.
	ErrNotCached = errors.New("not cached")

	// Fetch Errors.

	// ErrTransport indicates the request never produced a usable response.
	ErrTransport = errors.New("transport failure")

	// ErrRateLimited indicates the source refused the request because of
	// request volume (HTTP 429 or an interstitial challenge page).
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates the source answered with a server-side failure.
	ErrServer = errors.New("server error")

	// ErrParse indicates the response could not be read into entities.
	ErrParse = errors.New("parse failure")

	// ErrTimeout indicates the request or resource timeout elapsed.
	ErrTimeout = errors.New("timeout")
)

// FetchErrorKind classifies a fetch failure.
type FetchErrorKind string

// Fetch failure kinds.
const (
	FetchErrTransport   FetchErrorKind = "transport"
	FetchErrRateLimited FetchErrorKind = "rate_limited"
	FetchErrNotFound    FetchErrorKind = "not_found"
	FetchErrServer      FetchErrorKind = "server"
	FetchErrParse       FetchErrorKind = "parse"
	FetchErrTimeout     FetchErrorKind = "timeout"
	FetchErrValidation  FetchErrorKind = "validation"
)

// FetchError is returned by Fetch Service implementations.
// errors.Is matches it against the sentinel for its kind.
type FetchError struct {
	Kind       FetchErrorKind
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *FetchError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k FetchErrorKind) sentinel() error {
	switch k {
	case FetchErrTransport:
		return ErrTransport
	case FetchErrRateLimited:
		return ErrRateLimited
	case FetchErrNotFound:
		return ErrNotFound
	case FetchErrServer:
		return ErrServer
	case FetchErrParse:
		return ErrParse
	case FetchErrTimeout:
		return ErrTimeout
	case FetchErrValidation:
		return ErrInvalidInput
	default:
		return nil
	}
}

// NewFetchError builds a FetchError.
func NewFetchError(kind FetchErrorKind, op string, err error) *FetchError {
	return &FetchError{Kind: kind, Op: op, Err: err}
}

// IsRateLimited reports whether err is a rate limiting failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// FetchErrorKindOf returns the kind of the first FetchError in err's chain.
func FetchErrorKindOf(err error) (FetchErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
