package bootstrap

import (
	"log/slog"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/target/kb-ui-api/config"
	"github.com/target/kb-ui-api/internal/adapters/azuread"
	"github.com/target/kb-ui-api/internal/adapters/devauth"
	"github.com/target/kb-ui-api/internal/adapters/oauthstate"
	redisadapter "github.com/target/kb-ui-api/internal/adapters/redis"
	"github.com/target/kb-ui-api/internal/core"
	"github.com/target/kb-ui-api/internal/ports"
	"github.com/target/kb-ui-api/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Users       core.UserRepository
	Logger      *slog.Logger
}

// AuthRuntime bundles the built auth service with its teardown hook.
type AuthRuntime struct {
	Service *service.AuthService

	// stop tears down background work owned by the auth stack (the
	// in-memory state store sweep). Nil-safe via Stop.
	stop func()
}

// Stop releases background resources held by the auth stack.
func (r *AuthRuntime) Stop() {
	if r != nil && r.stop != nil {
		r.stop()
	}
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns a runtime with a nil Service if auth cannot be configured; the
// HTTP layer treats that as authentication disabled.
func BuildAuthService(cfg AuthConfig) *AuthRuntime {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return &AuthRuntime{}
	}

	// Sessions always live in Redis so logins survive process restarts.
	sessionStore := redisadapter.NewSessionStore(cfg.RedisClient)

	states, stop := buildStateStore(cfg)

	provider := buildProvider(cfg)
	if provider == nil {
		stop()
		return &AuthRuntime{}
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		States:     states,
		Sessions:   sessionStore,
		Users:      cfg.Users,
		SessionTTL: cfg.Auth.SessionTTL,
	})

	return &AuthRuntime{Service: svc, stop: stop}
}

// buildStateStore picks the configured login-state backend. The returned
// stop func is a no-op for the Redis store, which expires keys natively.
func buildStateStore(cfg AuthConfig) (ports.StateStore, func()) {
	if cfg.Auth.StateStore == config.StateStoreMemory {
		store := oauthstate.NewMemoryStore(oauthstate.MemoryStoreOptions{
			TTL:           cfg.Auth.StateTTL,
			SweepInterval: cfg.Auth.StateSweepInterval,
		})
		store.Start()
		if cfg.Logger != nil {
			cfg.Logger.Info("using in-memory oauth state store",
				"ttl", cfg.Auth.StateTTL,
				"sweep_interval", cfg.Auth.StateSweepInterval,
			)
		}
		return store, store.Stop
	}

	return oauthstate.NewRedisStore(cfg.RedisClient, cfg.Auth.StateTTL), func() {}
}

//nolint:ireturn // the provider port keeps oauth/mock selection behind one interface.
func buildProvider(cfg AuthConfig) ports.IdentityProvider {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return devauth.NewProvider(cfg.Auth.DevAuth, callbackPath(cfg.Auth.OAuth.RedirectURL))

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			if cfg.Logger != nil {
				cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
					"discovery_url_empty", oauth.DiscoveryURL == "",
					"client_id_empty", oauth.ClientID == "",
					"client_secret_empty", oauth.ClientSecret == "",
				)
			}
			return nil
		}

		prov, err := azuread.NewProvider(azuread.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			GraphBaseURL: oauth.GraphBaseURL,
		})
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("failed to create Azure AD provider, auth disabled", "error", err)
			}
			return nil
		}
		return prov

	default:
		return nil
	}
}

func callbackPath(redirectURL string) string {
	if u, err := url.Parse(redirectURL); err == nil && u.Path != "" {
		return u.Path
	}
	return "/auth/callback"
}
