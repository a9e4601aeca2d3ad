package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
)

func TestUpsertUserRequestValidate(t *testing.T) {
	valid := UpsertUserRequest{
		ProviderID:  "aad-object-id-1",
		Email:       "user@example.com",
		DisplayName: "A User",
	}
	require.NoError(t, valid.Validate())

	t.Run("missing provider id", func(t *testing.T) {
		r := valid
		r.ProviderID = "   "
		assert.Error(t, r.Validate())
	})

	t.Run("email too long", func(t *testing.T) {
		r := valid
		r.Email = strings.Repeat("a", 310) + "@example.com"
		assert.Error(t, r.Validate())
	})

	t.Run("display name too long", func(t *testing.T) {
		r := valid
		r.DisplayName = strings.Repeat("x", 256)
		assert.Error(t, r.Validate())
	})

	t.Run("empty optional attributes allowed", func(t *testing.T) {
		r := UpsertUserRequest{ProviderID: "aad-1"}
		assert.NoError(t, r.Validate())
	})
}

func TestUpdateUserRoleRequestValidate(t *testing.T) {
	for _, role := range []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleUser, domainauth.RoleGuest} {
		r := UpdateUserRoleRequest{Role: role}
		assert.NoError(t, r.Validate(), string(role))
	}

	r := UpdateUserRoleRequest{Role: "superuser"}
	assert.Error(t, r.Validate())

	empty := UpdateUserRoleRequest{}
	assert.Error(t, empty.Validate())
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple", "report.pdf", false},
		{"nested", "docs/2026/report.pdf", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"leading slash", "/etc/passwd", true},
		{"dot segment", "docs/./report.pdf", true},
		{"traversal", "../secrets.txt", true},
		{"nested traversal", "docs/../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
