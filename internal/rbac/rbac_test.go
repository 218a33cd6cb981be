package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrantsMatchTable(t *testing.T) {
	tests := []struct {
		role Role
		want Capabilities
	}{
		{RoleAdmin, Capabilities{Role: RoleAdmin, CanView: true, CanCreate: true, CanEdit: true, CanDelete: true, CanManageUsers: true, CanViewReports: true}},
		{RoleManager, Capabilities{Role: RoleManager, CanView: true, CanCreate: true, CanEdit: true, CanDelete: true, CanViewReports: true}},
		{RoleStaff, Capabilities{Role: RoleStaff, CanView: true, CanCreate: true, CanEdit: true}},
		{RoleViewer, Capabilities{Role: RoleViewer, CanView: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.role))
		})
	}
}

func TestRolesWith(t *testing.T) {
	assert.Equal(t, []Role{RoleAdmin}, RolesWith(PermManageUsers))
	assert.Equal(t, []Role{RoleAdmin, RoleManager}, RolesWith(PermDelete))
	assert.Equal(t, []Role{RoleAdmin, RoleManager, RoleStaff}, RolesWith(PermCreate))
	assert.Equal(t, Roles, RolesWith(PermView))
}

func TestParseRoleDefaultsToViewer(t *testing.T) {
	assert.Equal(t, RoleManager, ParseRole(" Manager "))
	assert.Equal(t, RoleViewer, ParseRole(""))
	assert.Equal(t, RoleViewer, ParseRole("superuser"))
	assert.False(t, Valid("superuser"))
	assert.True(t, Valid("staff"))
}

func TestHierarchy(t *testing.T) {
	assert.True(t, AtLeast(RoleAdmin, RoleManager))
	assert.True(t, AtLeast(RoleStaff, RoleStaff))
	assert.False(t, AtLeast(RoleStaff, RoleManager))
	assert.False(t, AtLeast(RoleViewer, RoleStaff))
	assert.Greater(t, RoleAdmin.Level(), RoleManager.Level())
	assert.Greater(t, RoleManager.Level(), RoleStaff.Level())
	assert.Greater(t, RoleStaff.Level(), RoleViewer.Level())
}
