package oauthstate

// Package oauthstate tracks in-flight login attempts between the login
// redirect and the provider callback. Tokens are single-use and expire after
// a bounded window to keep the callback replay-proof.

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes sized for 256 bits of entropy; well past the 128-bit floor
// required for an unguessable state parameter.
const tokenBytes = 32

// newToken generates a cryptographically secure URL-safe state token.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
