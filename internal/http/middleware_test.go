package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/kb-ui-api/internal/adapters/authroles"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
)

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithSession(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if id != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: id})
	}
	return req
}

func sessionWithRole(role domainauth.Role) *mockAuthService {
	return &mockAuthService{
		getSessionFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			sess := authedSession(sessionID)
			sess.Role = role
			return &sess, nil
		},
	}
}

func TestRequireAuth_Authenticated(t *testing.T) {
	var hit bool
	handler := RequireAuth(&mockAuthService{})(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("valid-session"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hit)
}

func TestRequireAuth_NoCookie(t *testing.T) {
	var hit bool
	handler := RequireAuth(&mockAuthService{})(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession(""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
	assert.False(t, hit)
}

func TestRequireAuth_GuestSession(t *testing.T) {
	var hit bool
	mockSvc := &mockAuthService{
		getSessionFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			sess := guestSession(sessionID)
			return &sess, nil
		},
	}
	handler := RequireAuth(mockSvc)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("guest-session"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, hit)
}

func TestRequireAuth_InvalidSession(t *testing.T) {
	var hit bool
	mockSvc := &mockAuthService{
		getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, domainauth.ErrSessionNotFound
		},
	}
	handler := RequireAuth(mockSvc)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("stale"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, hit)
}

func TestRequireAuth_SessionInContext(t *testing.T) {
	var got *domainauth.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUserSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(&mockAuthService{})(inner)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("valid-session"))

	require.NotNil(t, got)
	assert.Equal(t, "valid-session", got.ID)
}

func TestRequireRole_AdminAccessingAdminRoute(t *testing.T) {
	var hit bool
	handler := RequireRole(sessionWithRole(domainauth.RoleAdmin), domainauth.RoleAdmin)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("admin-session"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hit)
}

func TestRequireRole_UserAccessingAdminRoute(t *testing.T) {
	var hit bool
	handler := RequireRole(sessionWithRole(domainauth.RoleUser), domainauth.RoleAdmin)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("user-session"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_permissions")
	assert.False(t, hit)
}

func TestRequireRole_AdminAccessingUserRoute(t *testing.T) {
	var hit bool
	handler := RequireRole(sessionWithRole(domainauth.RoleAdmin), domainauth.RoleUser)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("admin-session"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hit)
}

func TestRequirePermission_Allowed(t *testing.T) {
	var hit bool
	handler := RequirePermission(
		sessionWithRole(domainauth.RoleUser),
		authroles.StaticMapper{},
		authroles.PermFilesWrite,
	)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("user-session"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hit)
}

func TestRequirePermission_Denied(t *testing.T) {
	var hit bool
	handler := RequirePermission(
		sessionWithRole(domainauth.RoleUser),
		authroles.StaticMapper{},
		authroles.PermUsersManage,
	)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("user-session"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, hit)
}

func TestRequirePermission_Unauthenticated(t *testing.T) {
	var hit bool
	handler := RequirePermission(
		&mockAuthService{},
		authroles.StaticMapper{},
		authroles.PermArticlesRead,
	)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession(""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, hit)
}

func TestOptionalAuth_WithSession(t *testing.T) {
	var got *domainauth.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUserSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := OptionalAuth(&mockAuthService{})(inner)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession("valid-session"))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "valid-session", got.ID)
}

func TestOptionalAuth_WithoutSession(t *testing.T) {
	var hit bool
	handler := OptionalAuth(&mockAuthService{})(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession(""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hit)
}

func TestHasRequiredRole_UnknownRole(t *testing.T) {
	assert.False(t, hasRequiredRole(domainauth.Role("superuser"), domainauth.RoleUser))
	assert.False(t, hasRequiredRole(domainauth.RoleAdmin, domainauth.Role("superuser")))
}
