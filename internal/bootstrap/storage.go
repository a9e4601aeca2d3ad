package bootstrap

import (
	"context"
	"log/slog"

	"github.com/target/kb-ui-api/config"
	"github.com/target/kb-ui-api/internal/adapters/objectstore"
	"github.com/target/kb-ui-api/internal/service"
)

// StorageConfig contains configuration for the file browser backend.
type StorageConfig struct {
	Storage config.StorageConfig
	Logger  *slog.Logger
}

// BuildFileService connects the object store and wraps it in a FileService.
// Returns nil when the store is unreachable; the file browser routes are
// simply not registered in that case.
func BuildFileService(ctx context.Context, cfg StorageConfig) *service.FileService {
	store, err := objectstore.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("file browser disabled: object store unavailable",
				"endpoint", cfg.Storage.Endpoint,
				"bucket", cfg.Storage.Bucket,
				"error", err,
			)
		}
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("object store connected",
			"endpoint", cfg.Storage.Endpoint,
			"bucket", cfg.Storage.Bucket,
		)
	}

	return service.NewFileService(service.FileServiceOptions{
		Store:         store,
		PresignExpiry: cfg.Storage.PresignExpiry,
	})
}
