package azuread

// Package azuread implements the IdentityProvider port against Azure AD
// (Microsoft identity platform) with profile lookups via Microsoft Graph.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"golang.org/x/oauth2"
)

// defaultTimeout bounds every outbound call to the provider so failed
// handshakes do not hold connections open.
const defaultTimeout = 10 * time.Second

// Provider implements ports.IdentityProvider using OAuth2 against Azure AD.
type Provider struct {
	config       *oauth2.Config
	graphBaseURL string
	httpClient   *http.Client
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the Azure AD provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	GraphBaseURL string
	HTTPClient   *http.Client // Optional, defaults to a 10s-timeout client
}

// NewProvider creates a new Azure AD provider. Endpoint URLs come from the
// tenant's OIDC discovery document; malformed configuration fails here, at
// startup, never at request time.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	graphBaseURL := strings.TrimSuffix(config.GraphBaseURL, "/")
	if graphBaseURL == "" {
		graphBaseURL = "https://graph.microsoft.com/v1.0"
	}

	// Single discovery fetch at construction
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
		graphBaseURL: graphBaseURL,
		httpClient:   httpClient,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
	}, nil
}

// AuthorizeURL composes the authorize endpoint URL carrying the given state.
// Pure given configuration: the same state always yields the same URL.
func (p *Provider) AuthorizeURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_mode", "query"),
	)
}

// Exchange trades the authorization code for tokens at the token endpoint.
// Provider rejections become *domainauth.UpstreamAuthError; network-level
// failures become *domainauth.TransportError. Neither is retried: codes are
// single-use upstream and a replayed exchange must fail there, not be masked
// here.
func (p *Provider) Exchange(ctx context.Context, code string) (domainauth.TokenSet, error) {
	if code == "" {
		return domainauth.TokenSet{}, errors.New("authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return domainauth.TokenSet{}, &domainauth.UpstreamAuthError{
				StatusCode: status,
				Body:       string(retrieveErr.Body),
			}
		}
		return domainauth.TokenSet{}, &domainauth.TransportError{Op: "token exchange", Err: err}
	}

	// Verify the id_token signature and audience when the response carries
	// one (openid scope). The principal itself still comes from Graph.
	if rawID, ok := token.Extra("id_token").(string); ok && rawID != "" {
		if _, verifyErr := p.verifier.Verify(ctx, rawID); verifyErr != nil {
			return domainauth.TokenSet{}, fmt.Errorf("verify id_token: %w", verifyErr)
		}
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	return domainauth.TokenSet{
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}
