package ports

// Package ports defines interfaces (hexagonal ports) for auth and storage
// behavior. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"

	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
)

// IdentityProvider covers the three legs of the OAuth handshake against the
// identity provider.
type IdentityProvider interface {
	// AuthorizeURL composes the provider's authorize endpoint URL for the
	// given state token. Pure and deterministic given configuration.
	AuthorizeURL(state string) string

	// Exchange trades an authorization code for tokens. Codes are single-use
	// by provider contract; failures are never retried.
	Exchange(ctx context.Context, code string) (domainauth.TokenSet, error)

	// FetchProfile resolves the authenticated principal using the bearer
	// token. The returned principal always carries a non-empty avatar.
	FetchProfile(ctx context.Context, accessToken string) (domainauth.Principal, error)
}

// IssueInput carries the optional context recorded with a state token.
type IssueInput struct {
	OriginSessionID string
	RedirectTarget  string
}

// StateStore tracks in-flight login attempts keyed by an unguessable token.
// A token is valid for exactly one Consume and for at most the store's TTL.
type StateStore interface {
	// Issue generates a fresh token and records it with the current time.
	Issue(ctx context.Context, in IssueInput) (string, error)

	// Consume atomically looks up and deletes the record, returning
	// domainauth.ErrStateInvalid when the token was never issued, already
	// consumed, or expired.
	Consume(ctx context.Context, token string) (domainauth.StateRecord, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// PermissionMapper resolves the permission set granted to a role.
type PermissionMapper interface {
	Permissions(role domainauth.Role) []string
	Allows(role domainauth.Role, permission string) bool
}
