package httpx

import (
	"errors"
	"net/http"

	"github.com/target/kb-ui-api/internal/data"
	"github.com/target/kb-ui-api/internal/domain/model"
	apperrors "github.com/target/kb-ui-api/internal/errors"
	"github.com/target/kb-ui-api/internal/service"
)

// UserHandlers provides HTTP handlers for account administration.
type UserHandlers struct {
	Svc *service.UserService
}

const (
	maxUserListLimit = 100 // Maximum number of users that can be requested in one call
)

// List handles HTTP requests to list users with pagination.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxUserListLimit)

	opts := model.UsersListOptions{Limit: limit, Offset: offset}
	if q := r.URL.Query().Get("q"); q != "" {
		opts.Q = &q
	}

	page, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"users":  page.Users,
		"total":  page.Total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetByID handles HTTP requests to get a user by ID.
func (h *UserHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("user id is required")},
		)
		return
	}

	user, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "get_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// UpdateRole handles HTTP requests to change a user's role.
func (h *UserHandlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("user id is required")},
		)
		return
	}

	var req model.UpdateUserRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	if err := h.Svc.EnsureNotLastAdmin(r.Context(), id, req.Role); err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "last_admin", Err: err})
		return
	}

	user, err := h.Svc.UpdateRole(r.Context(), id, req)
	if err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.Is(err, data.ErrUserNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
		case errors.As(err, &appErr):
			WriteAppError(w, err)
		case isValidationError(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		default:
			WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "update_failed", Err: err})
		}
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// Delete handles HTTP requests to delete a user account.
func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("user id is required")},
		)
		return
	}

	// A deleted admin must not be the last one standing.
	if err := h.Svc.EnsureNotLastAdmin(r.Context(), id, ""); err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "last_admin", Err: err})
		return
	}

	deleted, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "delete_failed", Err: err})
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "user_not_found",
			Err:     errors.New("user not found"),
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
