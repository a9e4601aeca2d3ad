package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses Azure AD OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// StateStoreKind selects the backing store for in-flight login state.
type StateStoreKind string

const (
	// StateStoreRedis keeps login state in Redis, shared across instances.
	StateStoreRedis StateStoreKind = "redis"
	// StateStoreMemory keeps login state in process memory.
	StateStoreMemory StateStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StateStoreKind.
func (s *StateStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "redis", "memory":
		*s = StateStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid StateStoreKind: %q (valid options: redis, memory)", v)
	}
}

// OAuthConfig contains Azure AD OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email User.Read"`

	// DiscoveryURL is the OIDC issuer or discovery document URL for the tenant,
	// e.g. https://login.microsoftonline.com/<tenant-id>/v2.0.
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// GraphBaseURL is the Microsoft Graph API base used for profile and photo
	// lookups. Overridable for tests.
	GraphBaseURL string `env:"GRAPH_BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID      string `env:"USER_ID"      envDefault:"dev-user"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SessionTTL is how long an authenticated session lives.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"8h"`

	// StateTTL bounds how long an in-flight login attempt stays valid.
	StateTTL time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`

	// StateStore selects where in-flight login state lives: "redis" (shared,
	// survives restarts and scale-out) or "memory" (single instance only).
	StateStore StateStoreKind `env:"OAUTH_STATE_STORE" envDefault:"redis"`

	// StateSweepInterval is how often the in-memory state store sweeps
	// expired login attempts. Ignored by the Redis-backed store, which
	// relies on native key expiry.
	StateSweepInterval time.Duration `env:"OAUTH_STATE_SWEEP_INTERVAL" envDefault:"1m"`

	// LoginPage is the frontend path users land on after a failed login.
	// Failure codes are appended as ?error=<code>.
	LoginPage string `env:"AUTH_LOGIN_PAGE" envDefault:"/login"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = 8 * time.Hour
	}
	if a.StateTTL <= 0 {
		a.StateTTL = 10 * time.Minute
	}
	if a.StateSweepInterval <= 0 {
		a.StateSweepInterval = time.Minute
	}
	if a.StateStore != StateStoreMemory {
		a.StateStore = StateStoreRedis
	}
	if a.LoginPage == "" || !strings.HasPrefix(a.LoginPage, "/") {
		a.LoginPage = "/login"
	}
}
