package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// Principal is the resolved identity after a successful OAuth handshake.
// Adapters map provider-specific claims into this shape.
type Principal struct {
	// ID is the stable identifier from the identity provider,
	// never reused across users.
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`

	// AvatarDataURI is either a base64-embedded image fetched from the
	// provider or a deterministic placeholder URL derived from DisplayName.
	// Always populated.
	AvatarDataURI string `json:"avatar_data_uri"`
}

// TokenSet is the result of exchanging an authorization code.
type TokenSet struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Session is the server-side record we persist for a browser session.
// ID is an opaque session identifier delivered via cookie.
type Session struct {
	ID   string    `json:"id"`
	User Principal `json:"user"`
	Role Role      `json:"role"`

	// AccessToken is the provider bearer token used for profile/photo calls.
	// It is never persisted beyond the session lifetime.
	AccessToken string `json:"access_token,omitempty"`

	// OAuthState holds the in-flight login state token between the login
	// redirect and the callback. Cleared once the callback completes.
	OAuthState string `json:"oauth_state,omitempty"`

	ExpiresAt time.Time `json:"expires_at"`
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// Authenticated reports whether the session carries a resolved principal.
func (s Session) Authenticated() bool { return s.User.ID != "" }

// StateRecord represents one in-flight login attempt.
type StateRecord struct {
	// Token is an opaque crypto-random string, unique per login attempt.
	Token string `json:"token"`

	IssuedAt time.Time `json:"issued_at"`

	// OriginSessionID identifies the browser session that initiated login.
	// Best-effort; empty when session cookies are not visible (cross-port
	// browsing during local development).
	OriginSessionID string `json:"origin_session_id,omitempty"`

	// RedirectTarget is the optional post-login destination path.
	RedirectTarget string `json:"redirect_target,omitempty"`
}
