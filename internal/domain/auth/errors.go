package auth

import (
	"errors"
	"fmt"
)

// ErrStateInvalid marks a missing, expired, or reused state token.
// User-caused or an attack attempt; not logged as a system error.
var ErrStateInvalid = errors.New("invalid or expired state token")

// ErrSessionNotFound is returned when a session id has no live record.
var ErrSessionNotFound = errors.New("session not found")

// UpstreamAuthError means the provider rejected the code or client
// credentials at the token endpoint. Body carries the provider's raw error
// payload for logging; it must never be surfaced verbatim to the end user.
type UpstreamAuthError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("provider rejected token exchange (status %d)", e.StatusCode)
}

// TransportError is a network-level failure reaching the provider
// (timeout, DNS, TLS). Never retried automatically; the user re-initiates
// login manually.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider unreachable during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProfileFetchError means the token exchange succeeded but profile
// retrieval failed. Kept distinct from UpstreamAuthError so callers can log
// exactly which leg of the handshake failed.
type ProfileFetchError struct {
	Err error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("fetch profile: %v", e.Err)
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }

// SessionPersistError means the session store failed to save. The user sees
// a 500-class failure since authentication cannot complete without a
// persisted session.
type SessionPersistError struct {
	Err error
}

func (e *SessionPersistError) Error() string {
	return fmt.Sprintf("persist session: %v", e.Err)
}

func (e *SessionPersistError) Unwrap() error { return e.Err }
