// Package httpx provides HTTP handlers and utilities for the knowledge-base API.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/kb-ui-api/internal/adapters/authroles"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/ports"
	"github.com/target/kb-ui-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth  AuthServiceInterface
	Users *service.UserService
	Files *service.FileService
	// Permissions resolves role capabilities for permission-gated routes.
	// Defaults to the static mapper when nil.
	Permissions  ports.PermissionMapper
	CookieDomain string
	// LoginPage is where handshake failures redirect with an error code.
	LoginPage string
	Logger    *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	perms := services.Permissions
	if perms == nil {
		perms = authroles.StaticMapper{}
	}

	// Every non-health route needs a working auth service; without one the
	// process still serves health checks so orchestration can see it.
	if services.Auth != nil {
		authHandlers := &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			LoginPage:    services.LoginPage,
			Logger:       logger,
		}
		registerAuthRoutes(mux, authHandlers)

		if services.Users != nil {
			registerUserRoutes(mux, &UserHandlers{Svc: services.Users}, services.Auth, perms)
		}
		if services.Files != nil {
			registerFileRoutes(mux, &FileHandlers{Svc: services.Files}, services.Auth, perms)
		}
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	var handler http.Handler = mux
	handler = Recover(logger)(handler)
	handler = Logging(logger)(handler)
	return handler
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("GET /auth/logout", h.Logout)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/me", h.Me)
}

func registerUserRoutes(
	mux *http.ServeMux,
	h *UserHandlers,
	auth AuthSessionReader,
	perms ports.PermissionMapper,
) {
	read := RequirePermission(auth, perms, authroles.PermUsersRead)
	manage := RequirePermission(auth, perms, authroles.PermUsersManage)

	mux.Handle("GET /api/users", read(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/users/{id}", read(http.HandlerFunc(h.GetByID)))
	mux.Handle("PATCH /api/users/{id}", manage(http.HandlerFunc(h.UpdateRole)))
	mux.Handle("DELETE /api/users/{id}", manage(http.HandlerFunc(h.Delete)))
}

func registerFileRoutes(
	mux *http.ServeMux,
	h *FileHandlers,
	auth AuthSessionReader,
	perms ports.PermissionMapper,
) {
	read := RequirePermission(auth, perms, authroles.PermFilesRead)
	write := RequirePermission(auth, perms, authroles.PermFilesWrite)
	admin := RequireRole(auth, domainauth.RoleAdmin)

	mux.Handle("GET /api/files", read(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/files/{key...}", read(http.HandlerFunc(h.DownloadURL)))
	mux.Handle("POST /api/files", write(http.HandlerFunc(h.Upload)))
	mux.Handle("DELETE /api/files/{key...}", admin(http.HandlerFunc(h.Delete)))
}
