// Package core defines the repository interfaces consumed by the service
// layer. Implementations live in internal/data.
package core

import (
	"context"

	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/domain/model"
)

// UserRepository defines the interface for user account data operations.
type UserRepository interface {
	// UpsertByProviderID inserts a user on first login or refreshes the
	// stored profile attributes when they changed. The persisted role is
	// never modified by an upsert.
	UpsertByProviderID(ctx context.Context, req *model.UpsertUserRequest) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*model.User, error)
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
	Count(ctx context.Context, opts model.UsersListOptions) (int, error)
	// CountByRole counts all users holding the given role, unpaged.
	CountByRole(ctx context.Context, role domainauth.Role) (int, error)
	UpdateRole(ctx context.Context, id string, role domainauth.Role) (*model.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}
