package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/kb-ui-api/config"
	"github.com/target/kb-ui-api/internal/data"
	"github.com/target/kb-ui-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth  *AuthRuntime
	Users *service.UserService
	Files *service.FileService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires repositories and services from shared infrastructure.
func NewServices(ctx context.Context, deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userRepo := data.NewUserRepo(deps.DB)

	auth := BuildAuthService(AuthConfig{
		Auth:        deps.Config.Auth,
		RedisClient: deps.RedisClient,
		Users:       userRepo,
		Logger:      logger,
	})

	users := service.NewUserService(service.UserServiceOptions{UserRepo: userRepo})

	files := BuildFileService(ctx, StorageConfig{
		Storage: deps.Config.Storage,
		Logger:  logger,
	})

	return ServiceContainer{
		Auth:  auth,
		Users: users,
		Files: files,
	}
}

// Stop releases background resources held by the services.
func (c ServiceContainer) Stop() {
	c.Auth.Stop()
}
