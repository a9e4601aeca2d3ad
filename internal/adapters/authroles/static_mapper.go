package authroles

import (
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/ports"
)

// Permission names used across the HTTP layer. Handlers check these rather
// than comparing roles directly, so role semantics stay in one place.
const (
	PermArticlesRead  = "articles:read"
	PermArticlesWrite = "articles:write"
	PermFilesRead     = "files:read"
	PermFilesWrite    = "files:write"
	PermUsersRead     = "users:read"
	PermUsersManage   = "users:manage"
)

// StaticMapper resolves roles to permissions from a fixed table. Roles are
// hierarchical: admin covers everything user has, user covers everything
// guest has.
type StaticMapper struct{}

var _ ports.PermissionMapper = StaticMapper{}

var guestPerms = []string{
	PermArticlesRead,
}

var userPerms = append([]string{
	PermArticlesWrite,
	PermFilesRead,
	PermFilesWrite,
}, guestPerms...)

var adminPerms = append([]string{
	PermUsersRead,
	PermUsersManage,
}, userPerms...)

// Permissions returns the permission names granted to a role. The returned
// slice is a copy; callers may mutate it.
func (StaticMapper) Permissions(role domainauth.Role) []string {
	var src []string
	switch role {
	case domainauth.RoleAdmin:
		src = adminPerms
	case domainauth.RoleUser:
		src = userPerms
	case domainauth.RoleGuest:
		src = guestPerms
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Allows reports whether the role grants the named permission.
func (StaticMapper) Allows(role domainauth.Role, permission string) bool {
	var src []string
	switch role {
	case domainauth.RoleAdmin:
		src = adminPerms
	case domainauth.RoleUser:
		src = userPerms
	case domainauth.RoleGuest:
		src = guestPerms
	}
	for _, p := range src {
		if p == permission {
			return true
		}
	}
	return false
}
