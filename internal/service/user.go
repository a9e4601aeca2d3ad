package service

import (
	"context"
	"fmt"

	"github.com/target/kb-ui-api/internal/core"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/domain/model"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	UserRepo core.UserRepository
}

// UserService orchestrates account management for administrators.
type UserService struct {
	users core.UserRepository
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	return &UserService{users: opts.UserRepo}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// UserListPage is one page of users plus the unpaged total.
type UserListPage struct {
	Users []*model.User `json:"users"`
	Total int           `json:"total"`
}

// List returns a page of users with the total matching count.
func (s *UserService) List(ctx context.Context, opts model.UsersListOptions) (*UserListPage, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	total, err := s.users.Count(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	return &UserListPage{Users: users, Total: total}, nil
}

// UpdateRole changes a user's role after validating the request.
func (s *UserService) UpdateRole(ctx context.Context, id string, req model.UpdateUserRoleRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.users.UpdateRole(ctx, id, req.Role)
}

// Delete removes a user account. Sessions already issued stay valid until
// they expire; the account simply cannot log in to a role above guest again.
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	return s.users.Delete(ctx, id)
}

// EnsureNotLastAdmin reports an error when demoting or deleting the given
// user would leave the system without any admin.
func (s *UserService) EnsureNotLastAdmin(ctx context.Context, id string, newRole domainauth.Role) error {
	if newRole == domainauth.RoleAdmin {
		return nil
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role != domainauth.RoleAdmin {
		return nil
	}

	// List is paged, so the count has to come from a dedicated query.
	count, err := s.users.CountByRole(ctx, domainauth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count <= 1 {
		return fmt.Errorf("cannot remove the last admin")
	}
	return nil
}
