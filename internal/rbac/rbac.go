// Package rbac holds the static role → permission table shared by the API
// server route guards and the console's capability checks.
package rbac

import "strings"

// Role is a user role as stored on the user record and carried in access tokens.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleViewer  Role = "viewer"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{RoleAdmin, RoleManager, RoleStaff, RoleViewer}

// Permission names a capability checked by screens and routes.
type Permission string

const (
	PermView        Permission = "view"
	PermCreate      Permission = "create"
	PermEdit        Permission = "edit"
	PermDelete      Permission = "delete"
	PermManageUsers Permission = "manage_users"
	PermViewReports Permission = "view_reports"
)

// Permissions lists every permission.
var Permissions = []Permission{PermView, PermCreate, PermEdit, PermDelete, PermManageUsers, PermViewReports}

// ParseRole maps a stored role name onto a Role. Unknown or empty names
// resolve to the lowest-privilege role.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RoleStaff:
		return RoleStaff
	}
	return RoleViewer
}

// Valid reports whether s names one of the known roles exactly.
func Valid(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// Level returns the numeric rank of a role: admin 4, manager 3, staff 2, viewer 1.
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 4
	case RoleManager:
		return 3
	case RoleStaff:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

func (r Role) String() string { return string(r) }

// AtLeast reports whether r ranks at or above min.
func AtLeast(r, min Role) bool {
	return r.Level() >= min.Level()
}

// Grants returns the permission set held by a role.
func Grants(r Role) map[Permission]bool {
	switch r {
	case RoleAdmin:
		return set(PermView, PermCreate, PermEdit, PermDelete, PermManageUsers, PermViewReports)
	case RoleManager:
		return set(PermView, PermCreate, PermEdit, PermDelete, PermViewReports)
	case RoleStaff:
		return set(PermView, PermCreate, PermEdit)
	case RoleViewer:
		return set(PermView)
	}
	return set()
}

// Has reports whether role r holds permission p.
func Has(r Role, p Permission) bool {
	return Grants(r)[p]
}

// RolesWith returns the roles holding p, most privileged first.
func RolesWith(p Permission) []Role {
	var out []Role
	for _, r := range Roles {
		if Has(r, p) {
			out = append(out, r)
		}
	}
	return out
}

// Capabilities is the set of boolean action flags a screen renders against.
type Capabilities struct {
	Role           Role
	CanView        bool
	CanCreate      bool
	CanEdit        bool
	CanDelete      bool
	CanManageUsers bool
	CanViewReports bool
}

// For derives capability flags for a role.
func For(r Role) Capabilities {
	g := Grants(r)
	return Capabilities{
		Role:           r,
		CanView:        g[PermView],
		CanCreate:      g[PermCreate],
		CanEdit:        g[PermEdit],
		CanDelete:      g[PermDelete],
		CanManageUsers: g[PermManageUsers],
		CanViewReports: g[PermViewReports],
	}
}

// Has reports whether the capability set includes p.
func (c Capabilities) Has(p Permission) bool {
	return Has(c.Role, p)
}

func set(perms ...Permission) map[Permission]bool {
	m := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}
