package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/domain/model"
	mockauth "github.com/target/kb-ui-api/internal/mocks/auth"
	"github.com/target/kb-ui-api/internal/service"
)

func newUserHandlersFixture(t *testing.T) (*UserHandlers, *mockauth.MemoryUserRepo) {
	t.Helper()
	repo := mockauth.NewMemoryUserRepo()
	svc := service.NewUserService(service.UserServiceOptions{UserRepo: repo})
	return &UserHandlers{Svc: svc}, repo
}

func seedUser(t *testing.T, repo *mockauth.MemoryUserRepo, providerID, email string) *model.User {
	t.Helper()
	u, err := repo.UpsertByProviderID(context.Background(), &model.UpsertUserRequest{
		ProviderID:  providerID,
		Email:       email,
		DisplayName: "Seeded User",
	})
	require.NoError(t, err)
	return u
}

func promote(t *testing.T, repo *mockauth.MemoryUserRepo, id string) {
	t.Helper()
	_, err := repo.UpdateRole(context.Background(), id, domainauth.RoleAdmin)
	require.NoError(t, err)
}

func TestUserHandlers_List(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	seedUser(t, repo, "aad-1", "one@example.com")
	seedUser(t, repo, "aad-2", "two@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Users []*model.User `json:"users"`
		Total int           `json:"total"`
		Limit int           `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Users, 2)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 50, body.Limit)
}

func TestUserHandlers_List_ClampsLimit(t *testing.T) {
	h, _ := newUserHandlersFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users?limit=9999", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"limit":100`)
}

func TestUserHandlers_GetByID(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	u := seedUser(t, repo, "aad-1", "one@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+u.ID, nil)
	req.SetPathValue("id", u.ID)
	w := httptest.NewRecorder()

	h.GetByID(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "one@example.com")
}

func TestUserHandlers_GetByID_NotFound(t *testing.T) {
	h, _ := newUserHandlersFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	h.GetByID(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "user_not_found")
}

func TestUserHandlers_GetByID_EmptyID(t *testing.T) {
	h, _ := newUserHandlersFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/", nil)
	w := httptest.NewRecorder()

	h.GetByID(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_path")
}

func TestUserHandlers_UpdateRole(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	u := seedUser(t, repo, "aad-1", "one@example.com")

	req := httptest.NewRequest(
		http.MethodPatch,
		"/api/users/"+u.ID,
		strings.NewReader(`{"role":"admin"}`),
	)
	req.SetPathValue("id", u.ID)
	w := httptest.NewRecorder()

	h.UpdateRole(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	updated, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, updated.Role)
}

func TestUserHandlers_UpdateRole_InvalidRole(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	u := seedUser(t, repo, "aad-1", "one@example.com")

	req := httptest.NewRequest(
		http.MethodPatch,
		"/api/users/"+u.ID,
		strings.NewReader(`{"role":"superuser"}`),
	)
	req.SetPathValue("id", u.ID)
	w := httptest.NewRecorder()

	h.UpdateRole(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestUserHandlers_UpdateRole_UnknownField(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	u := seedUser(t, repo, "aad-1", "one@example.com")

	req := httptest.NewRequest(
		http.MethodPatch,
		"/api/users/"+u.ID,
		strings.NewReader(`{"role":"admin","email":"sneaky@example.com"}`),
	)
	req.SetPathValue("id", u.ID)
	w := httptest.NewRecorder()

	h.UpdateRole(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_json")
}

func TestUserHandlers_UpdateRole_LastAdminDemotion(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	admin := seedUser(t, repo, "aad-1", "admin@example.com")
	promote(t, repo, admin.ID)

	req := httptest.NewRequest(
		http.MethodPatch,
		"/api/users/"+admin.ID,
		strings.NewReader(`{"role":"user"}`),
	)
	req.SetPathValue("id", admin.ID)
	w := httptest.NewRecorder()

	h.UpdateRole(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "last_admin")

	// Role is unchanged.
	unchanged, err := repo.GetByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, unchanged.Role)
}

func TestUserHandlers_UpdateRole_DemotionWithAnotherAdmin(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	first := seedUser(t, repo, "aad-1", "first@example.com")
	second := seedUser(t, repo, "aad-2", "second@example.com")
	promote(t, repo, first.ID)
	promote(t, repo, second.ID)

	req := httptest.NewRequest(
		http.MethodPatch,
		"/api/users/"+first.ID,
		strings.NewReader(`{"role":"user"}`),
	)
	req.SetPathValue("id", first.ID)
	w := httptest.NewRecorder()

	h.UpdateRole(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestUserHandlers_Delete(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	u := seedUser(t, repo, "aad-1", "one@example.com")

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+u.ID, nil)
	req.SetPathValue("id", u.ID)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err := repo.GetByID(context.Background(), u.ID)
	assert.Error(t, err)
}

func TestUserHandlers_Delete_NotFound(t *testing.T) {
	h, _ := newUserHandlersFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandlers_Delete_LastAdmin(t *testing.T) {
	h, repo := newUserHandlersFixture(t)
	admin := seedUser(t, repo, "aad-1", "admin@example.com")
	promote(t, repo, admin.ID)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+admin.ID, nil)
	req.SetPathValue("id", admin.ID)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "last_admin")
}
