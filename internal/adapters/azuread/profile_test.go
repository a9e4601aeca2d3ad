package azuread

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
)

// graphFixture configures the fake Graph server per test.
type graphFixture struct {
	profile     map[string]any
	photoStatus int
	photoBody   []byte
}

func newGraphProvider(t *testing.T, fx graphFixture) *Provider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fx.profile)
	})
	mux.HandleFunc("/me/photo/$value", func(w http.ResponseWriter, _ *http.Request) {
		if fx.photoStatus != 0 && fx.photoStatus != http.StatusOK {
			w.WriteHeader(fx.photoStatus)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(fx.photoBody)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &Provider{
		graphBaseURL: server.URL,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

func TestFetchProfile_Success(t *testing.T) {
	provider := newGraphProvider(t, graphFixture{
		profile: map[string]any{
			"id":                "user-guid-1",
			"displayName":       "Jane Smith",
			"mail":              "jane.smith@example.com",
			"userPrincipalName": "jsmith@corp.example.com",
		},
		photoBody: []byte{0xFF, 0xD8, 0xFF},
	})

	principal, err := provider.FetchProfile(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, "user-guid-1", principal.ID)
	assert.Equal(t, "jane.smith@example.com", principal.Email)
	assert.Equal(t, "Jane Smith", principal.DisplayName)
	assert.True(t, strings.HasPrefix(principal.AvatarDataURI, "data:image/jpeg;base64,"))
}

func TestFetchProfile_EmailFallsBackToUserPrincipalName(t *testing.T) {
	provider := newGraphProvider(t, graphFixture{
		profile: map[string]any{
			"id":                "user-guid-2",
			"displayName":       "Guest User",
			"mail":              nil,
			"userPrincipalName": "guest#EXT@corp.example.com",
		},
		photoStatus: http.StatusNotFound,
	})

	principal, err := provider.FetchProfile(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, "guest#EXT@corp.example.com", principal.Email)
}

func TestFetchProfile_PhotoFailureUsesFallbackAvatar(t *testing.T) {
	provider := newGraphProvider(t, graphFixture{
		profile: map[string]any{
			"id":          "user-guid-3",
			"displayName": "John Doe",
			"mail":        "john@example.com",
		},
		photoStatus: http.StatusNotFound,
	})

	principal, err := provider.FetchProfile(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, FallbackAvatarURL("John Doe"), principal.AvatarDataURI)
	assert.NotEmpty(t, principal.AvatarDataURI)
}

func TestFetchProfile_MissingIDFails(t *testing.T) {
	provider := newGraphProvider(t, graphFixture{
		profile: map[string]any{"displayName": "No ID"},
	})

	_, err := provider.FetchProfile(context.Background(), "token")

	var profileErr *domainauth.ProfileFetchError
	require.ErrorAs(t, err, &profileErr)
}

func TestFetchProfile_GraphUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	provider := &Provider{
		graphBaseURL: serverURL,
		httpClient:   &http.Client{Timeout: time.Second},
	}

	_, err := provider.FetchProfile(context.Background(), "token")

	var profileErr *domainauth.ProfileFetchError
	require.ErrorAs(t, err, &profileErr)
}
