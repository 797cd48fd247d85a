package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("resource not found")
	ErrNotInitialized       = errors.New("controller not initialized")
	ErrAlreadyInitialized   = errors.New("controller already initialized")
	ErrUnauthorized         = errors.New("app key is not authorized")
	ErrLinkButtonNotPressed = errors.New("link button not pressed")
	ErrInvalidAPIVersion    = errors.New("bridge does not support the v2 api")
	ErrNoBridgeFound        = errors.New("no bridge found")
	ErrInvalidAttributes    = errors.New("invalid attributes")
)

// ConnectionError is a transient push connection failure; the stream retries it.
type ConnectionError struct {
	Attempt int
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("event stream connection (attempt %d): %v", e.Attempt, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DecodeError reports a single frame or event item that could not be decoded.
// It never terminates the stream.
type DecodeError struct {
	Frame string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event %q: %v", truncate(e.Frame, 120), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// BootstrapError is returned by initialization when the full state fetch fails.
type BootstrapError struct {
	Kind ResourceKind
	Err  error
}

func (e *BootstrapError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("bootstrap %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("bootstrap: %v", e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// CallbackError is reported when a subscriber returns an error or panics.
type CallbackError struct {
	Subscription string
	Identity     ResourceIdentity
	Err          error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("subscription %s on %s: %v", e.Subscription, e.Identity, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// APIError is an error reported by the bridge in a response body.
type APIError struct {
	Status      int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("bridge api error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("bridge api error: HTTP %d: %s", e.Status, e.Description)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
