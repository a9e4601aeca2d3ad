package azuread

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
)

// Claim selection over the raw Graph profile document. Azure AD populates
// "mail" only for mailbox-enabled accounts; guest and sync-only accounts
// carry the address in "userPrincipalName" instead, so the first non-empty
// value wins.
const (
	profileEmailExpr = `mail || userPrincipalName`
	profileNameExpr  = `displayName`
	profileIDExpr    = `id`
)

// maxPhotoBytes caps the profile photo we are willing to embed as a data URI.
const maxPhotoBytes = 1 << 20

// FetchProfile resolves the authenticated principal from Graph /me.
// Any failure here is a *domainauth.ProfileFetchError, distinct from token
// exchange failures so callers can log which leg of the handshake broke.
// The photo lookup is best-effort; its absence substitutes the deterministic
// fallback avatar.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (domainauth.Principal, error) {
	doc, err := p.graphGetJSON(ctx, "/me", accessToken)
	if err != nil {
		return domainauth.Principal{}, &domainauth.ProfileFetchError{Err: err}
	}

	principal := domainauth.Principal{
		ID:          searchString(profileIDExpr, doc),
		Email:       searchString(profileEmailExpr, doc),
		DisplayName: searchString(profileNameExpr, doc),
	}
	if principal.ID == "" {
		return domainauth.Principal{}, &domainauth.ProfileFetchError{
			Err: fmt.Errorf("profile document missing id"),
		}
	}

	avatar, photoErr := p.fetchPhoto(ctx, accessToken)
	if photoErr != nil {
		slog.DebugContext(ctx, "profile photo unavailable, using fallback avatar",
			"error", photoErr)
		avatar = FallbackAvatarURL(principal.DisplayName)
	}
	principal.AvatarDataURI = avatar

	return principal, nil
}

// graphGetJSON performs an authenticated GET against Graph and decodes the
// JSON body into a generic document for claim selection.
func (p *Provider) graphGetJSON(ctx context.Context, path, accessToken string) (any, error) {
	body, _, err := p.graphGet(ctx, path, accessToken)
	if err != nil {
		return nil, err
	}

	var doc any
	if unmarshalErr := json.Unmarshal(body, &doc); unmarshalErr != nil {
		return nil, fmt.Errorf("decode graph response: %w", unmarshalErr)
	}
	return doc, nil
}

// fetchPhoto retrieves the user photo and embeds it as a data URI.
func (p *Provider) fetchPhoto(ctx context.Context, accessToken string) (string, error) {
	body, contentType, err := p.graphGet(ctx, "/me/photo/$value", accessToken)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty photo body")
	}
	if len(body) > maxPhotoBytes {
		return "", fmt.Errorf("photo exceeds %d bytes", maxPhotoBytes)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

func (p *Provider) graphGet(ctx context.Context, path, accessToken string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphBaseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("graph %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("graph %s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read graph response: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// searchString evaluates a JMESPath expression and returns the result when
// it is a non-empty string.
func searchString(expr string, doc any) string {
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
