package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/target/kb-ui-api/config"
)

// RunConfig groups dependencies for the blocking run loop.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunWithShutdown starts the HTTP server and blocks until a shutdown signal
// arrives or the server fails, then tears everything down in order.
func RunWithShutdown(cfg *RunConfig) error {
	if cfg == nil {
		return errors.New("run config is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := BuildHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  server,
			Logger:  logger,
		})
	})

	err := g.Wait()
	cfg.Services.Stop()
	return err
}
