//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
)

const (
	maxUserEmailLen       = 320
	maxUserDisplayNameLen = 255
)

// User is a knowledge-base account, keyed by the identity provider's stable id.
// Rows are created on first successful login and refreshed on later logins
// when profile attributes changed.
type User struct {
	ID          string          `json:"id"           db:"id"`
	ProviderID  string          `json:"provider_id"  db:"provider_id"`
	Email       string          `json:"email"        db:"email"`
	DisplayName string          `json:"display_name" db:"display_name"`
	AvatarURI   string          `json:"avatar_uri"   db:"avatar_uri"`
	Role        domainauth.Role `json:"role"         db:"role"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt   time.Time       `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"   db:"updated_at"`
}

// UpsertUserRequest carries the provider-resolved attributes written on login.
type UpsertUserRequest struct {
	ProviderID  string `json:"provider_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURI   string `json:"avatar_uri"`
}

// Validate checks the upsert request fields.
func (r *UpsertUserRequest) Validate() error {
	if strings.TrimSpace(r.ProviderID) == "" {
		return errors.New("provider id is required")
	}
	if utf8.RuneCountInString(r.Email) > maxUserEmailLen {
		return errors.New("email exceeds maximum length")
	}
	if utf8.RuneCountInString(r.DisplayName) > maxUserDisplayNameLen {
		return errors.New("display name exceeds maximum length")
	}
	return nil
}

// UpdateUserRoleRequest changes a user's application role.
type UpdateUserRoleRequest struct {
	Role domainauth.Role `json:"role"`
}

// Validate checks the role update request.
func (r *UpdateUserRoleRequest) Validate() error {
	if !r.Role.Valid() {
		return errors.New("role must be one of: admin, user, guest")
	}
	return nil
}

// UsersListOptions controls paging for listing users.
type UsersListOptions struct {
	Limit  int
	Offset int
	Q      *string // substring match on email or display name (ILIKE)
}
