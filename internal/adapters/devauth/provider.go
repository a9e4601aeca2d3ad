package devauth

// Package devauth provides a loopback identity provider for local
// development. AUTH_MODE=mock wires it in place of Azure AD so the full
// login flow (state issue, callback, session bind) can run without a
// tenant registration.

import (
	"context"
	"net/url"
	"time"

	"github.com/target/kb-ui-api/config"
	"github.com/target/kb-ui-api/internal/adapters/azuread"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/ports"
)

// devCode is the fixed authorization code the loopback provider accepts.
const devCode = "dev-code"

// Provider short-circuits the OAuth dance: AuthorizeURL points straight
// back at the callback, Exchange accepts the fixed code, and FetchProfile
// returns the configured developer identity.
type Provider struct {
	callbackPath string
	principal    domainauth.Principal
	now          func() time.Time
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider builds a loopback provider from dev-auth configuration.
// Empty fields fall back to a generic local identity.
func NewProvider(cfg config.DevAuthConfig, callbackPath string) *Provider {
	p := domainauth.Principal{
		ID:          cfg.UserID,
		Email:       cfg.Email,
		DisplayName: cfg.DisplayName,
	}
	if p.ID == "" {
		p.ID = "dev-user"
	}
	if p.Email == "" {
		p.Email = "dev@localhost"
	}
	if p.DisplayName == "" {
		p.DisplayName = "Local Developer"
	}
	p.AvatarDataURI = azuread.FallbackAvatarURL(p.DisplayName)

	if callbackPath == "" {
		callbackPath = "/auth/callback"
	}
	return &Provider{
		callbackPath: callbackPath,
		principal:    p,
		now:          time.Now,
	}
}

// AuthorizeURL sends the browser straight to the callback with the fixed
// code, preserving the state parameter so validation still runs.
func (p *Provider) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("code", devCode)
	q.Set("state", state)
	return p.callbackPath + "?" + q.Encode()
}

// Exchange accepts only the fixed dev code; anything else behaves like an
// upstream rejection so callback error handling is exercised locally too.
func (p *Provider) Exchange(_ context.Context, code string) (domainauth.TokenSet, error) {
	if code != devCode {
		return domainauth.TokenSet{}, &domainauth.UpstreamAuthError{
			StatusCode: 400,
			Body:       `{"error":"invalid_grant"}`,
		}
	}
	return domainauth.TokenSet{
		AccessToken: "dev-access-token",
		ExpiresAt:   p.now().Add(time.Hour),
	}, nil
}

// FetchProfile returns the configured developer identity.
func (p *Provider) FetchProfile(_ context.Context, _ string) (domainauth.Principal, error) {
	return p.principal, nil
}
