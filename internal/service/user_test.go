package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"github.com/target/kb-ui-api/internal/core"
	"github.com/target/kb-ui-api/internal/data"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/domain/model"
	"github.com/target/kb-ui-api/internal/mocks"
	mockauth "github.com/target/kb-ui-api/internal/mocks/auth"
)

func TestUserService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockUserRepository(ctrl)
	svc := NewUserService(UserServiceOptions{UserRepo: repo})
	ctx := context.Background()

	opts := model.UsersListOptions{Limit: 10}
	repo.EXPECT().List(ctx, opts).Return([]*model.User{
		{ID: "u1", Email: "a@example.com"},
		{ID: "u2", Email: "b@example.com"},
	}, nil)
	repo.EXPECT().Count(ctx, opts).Return(42, nil)

	page, err := svc.List(ctx, opts)
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, 42, page.Total)
}

func TestUserService_List_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockUserRepository(ctrl)
	svc := NewUserService(UserServiceOptions{UserRepo: repo})
	ctx := context.Background()

	repo.EXPECT().List(ctx, gomock.Any()).Return(nil, errors.New("db down"))

	_, err := svc.List(ctx, model.UsersListOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list users")
}

func TestUserService_UpdateRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockUserRepository(ctrl)
	svc := NewUserService(UserServiceOptions{UserRepo: repo})
	ctx := context.Background()

	repo.EXPECT().
		UpdateRole(ctx, "u1", domainauth.RoleAdmin).
		Return(&model.User{ID: "u1", Role: domainauth.RoleAdmin}, nil)

	user, err := svc.UpdateRole(ctx, "u1", model.UpdateUserRoleRequest{Role: domainauth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, user.Role)
}

func TestUserService_UpdateRole_InvalidRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockUserRepository(ctrl)
	svc := NewUserService(UserServiceOptions{UserRepo: repo})

	_, err := svc.UpdateRole(context.Background(), "u1", model.UpdateUserRoleRequest{Role: "superuser"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role must be one of")
}

func TestUserService_EnsureNotLastAdmin(t *testing.T) {
	users := mockauth.NewMemoryUserRepo()
	svc := NewUserService(UserServiceOptions{UserRepo: users})
	ctx := context.Background()

	only, err := users.UpsertByProviderID(ctx, &model.UpsertUserRequest{ProviderID: "p1"})
	require.NoError(t, err)
	admin, err := users.UpdateRole(ctx, only.ID, domainauth.RoleAdmin)
	require.NoError(t, err)

	// Demoting the only admin is refused.
	err = svc.EnsureNotLastAdmin(ctx, admin.ID, domainauth.RoleUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last admin")

	// Promotions are always fine.
	assert.NoError(t, svc.EnsureNotLastAdmin(ctx, admin.ID, domainauth.RoleAdmin))

	// With a second admin the demotion goes through.
	second, err := users.UpsertByProviderID(ctx, &model.UpsertUserRequest{ProviderID: "p2"})
	require.NoError(t, err)
	_, err = users.UpdateRole(ctx, second.ID, domainauth.RoleAdmin)
	require.NoError(t, err)
	assert.NoError(t, svc.EnsureNotLastAdmin(ctx, admin.ID, domainauth.RoleUser))

	// Non-admin targets never trip the guard.
	regular, err := users.UpsertByProviderID(ctx, &model.UpsertUserRequest{ProviderID: "p3"})
	require.NoError(t, err)
	assert.NoError(t, svc.EnsureNotLastAdmin(ctx, regular.ID, domainauth.RoleGuest))
}

// pagedUserRepo serves List with the production page cap so the admin guard
// is exercised against populations larger than one page.
type pagedUserRepo struct {
	core.UserRepository
	users []*model.User
}

func (r *pagedUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (r *pagedUserRepo) List(_ context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > len(r.users) {
		limit = len(r.users)
	}
	return r.users[:limit], nil
}

func (r *pagedUserRepo) CountByRole(_ context.Context, role domainauth.Role) (int, error) {
	count := 0
	for _, u := range r.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func TestUserService_EnsureNotLastAdmin_LargePopulation(t *testing.T) {
	// Both admins sit past the first page of the account list; the guard must
	// still see them.
	repo := &pagedUserRepo{}
	for i := 0; i < 60; i++ {
		u := &model.User{ID: fmt.Sprintf("u%d", i), Role: domainauth.RoleUser}
		if i == 55 || i == 58 {
			u.Role = domainauth.RoleAdmin
		}
		repo.users = append(repo.users, u)
	}
	svc := NewUserService(UserServiceOptions{UserRepo: repo})

	assert.NoError(t, svc.EnsureNotLastAdmin(context.Background(), "u55", domainauth.RoleUser))
	assert.NoError(t, svc.EnsureNotLastAdmin(context.Background(), "u58", domainauth.RoleGuest))
}

func TestUserService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockUserRepository(ctrl)
	svc := NewUserService(UserServiceOptions{UserRepo: repo})
	ctx := context.Background()

	repo.EXPECT().Delete(ctx, "u1").Return(true, nil)
	ok, err := svc.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	repo.EXPECT().Delete(ctx, "missing").Return(false, nil)
	ok, err = svc.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
