package data

// Package data provides PostgreSQL repositories for the knowledge base API.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/kb-ui-api/internal/core"
	"github.com/target/kb-ui-api/internal/data/pgxutil"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/domain/model"
	apperrors "github.com/target/kb-ui-api/internal/errors"
)

// ErrUserNotFound is returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides database operations for user account management.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new UserRepo instance with the given database connection.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewUserRepoWithTimeProvider creates a UserRepo with a custom TimeProvider (useful for testing).
func NewUserRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *UserRepo {
	return &UserRepo{
		DB:           db,
		timeProvider: timeProvider,
	}
}

// UpsertByProviderID inserts the account on first login and refreshes profile
// attributes on later ones. updated_at moves only when an attribute actually
// changed; the stored role is never touched so admin assignments survive
// logins.
func (r *UserRepo) UpsertByProviderID(ctx context.Context, req *model.UpsertUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("upsert user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid user attributes")
	}

	now := r.timeProvider.Now()

	var user model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userUpsertQuery,
			req.ProviderID, req.Email, req.DisplayName, req.AvatarURI, domainauth.RoleUser, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", apperrors.MapDBError(err))
	}

	return &user, nil
}

// getUserByQuery executes a single-row user query.
func (r *UserRepo) getUserByQuery(ctx context.Context, q, errMsg string, args ...any) (*model.User, error) {
	var user model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return &user, nil
}

// GetByID retrieves a user by its ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUserByQuery(ctx, userGetByIDQuery, "failed to get user by ID", id)
}

// GetByProviderID retrieves a user by the identity provider's stable id.
func (r *UserRepo) GetByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	return r.getUserByQuery(ctx, userGetByProviderIDQuery, "failed to get user by provider ID", providerID)
}

// List retrieves a page of users, optionally filtered by a substring match
// on email or display name.
func (r *UserRepo) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	q := userListQuery
	args := []any{limit, offset}
	if opts.Q != nil {
		q = userListFilteredQuery
		args = []any{"%" + *opts.Q + "%", limit, offset}
	}

	var users []model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		users, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]*model.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

// Count returns the number of users matching the list filter.
func (r *UserRepo) Count(ctx context.Context, opts model.UsersListOptions) (int, error) {
	q := `SELECT COUNT(*) FROM users`
	args := []any{}
	if opts.Q != nil {
		q += ` WHERE email ILIKE $1 OR display_name ILIKE $1`
		args = append(args, "%"+*opts.Q+"%")
	}

	var count int
	if err := r.DB.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountByRole returns the number of users holding the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role domainauth.Role) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM users WHERE role = $1`
	if err := r.DB.QueryRowContext(ctx, q, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

// UpdateRole changes the stored role for a user.
func (r *UserRepo) UpdateRole(ctx context.Context, id string, role domainauth.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.ValidationField("role", "role must be one of: admin, user, guest")
	}

	var user model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userUpdateRoleQuery, role, r.timeProvider.Now(), id)
		if err != nil {
			return err
		}
		defer rows.Close()
		user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user role: %w", apperrors.MapDBError(err))
	}
	return &user, nil
}

// Delete deletes a user by its ID.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// SQL query constants for static queries.
const (
	userColumns = `id, provider_id, email, display_name, avatar_uri, role,
	       last_login_at, created_at, updated_at`

	userUpsertQuery = `
		INSERT INTO users (provider_id, email, display_name, avatar_uri, role, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider_id) DO UPDATE SET
			email         = EXCLUDED.email,
			display_name  = EXCLUDED.display_name,
			avatar_uri    = EXCLUDED.avatar_uri,
			last_login_at = EXCLUDED.last_login_at,
			updated_at    = CASE
				WHEN (users.email, users.display_name, users.avatar_uri)
				     IS DISTINCT FROM (EXCLUDED.email, EXCLUDED.display_name, EXCLUDED.avatar_uri)
				THEN EXCLUDED.last_login_at
				ELSE users.updated_at
			END
		RETURNING ` + userColumns

	userGetByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	userGetByProviderIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE provider_id = $1`

	userListQuery = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	userListFilteredQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email ILIKE $1 OR display_name ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	userUpdateRoleQuery = `
		UPDATE users
		SET role = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + userColumns
)
