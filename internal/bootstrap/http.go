package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/kb-ui-api/config"
	httpx "github.com/target/kb-ui-api/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPServer assembles the router and an unstarted HTTP server.
// The caller owns ListenAndServe and Shutdown.
func BuildHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Users:        cfg.Services.Users,
		Files:        cfg.Services.Files,
		CookieDomain: appCfg.HTTP.CookieDomain,
		LoginPage:    appCfg.Auth.LoginPage,
		Logger:       logger,
	}
	if cfg.Services.Auth != nil && cfg.Services.Auth.Service != nil {
		services.Auth = cfg.Services.Auth.Service
	}

	handler := httpx.NewRouter(services)

	// Guard against empty addr to avoid listening on Go default
	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
