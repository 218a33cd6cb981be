package views

import (
	"context"
	"fmt"

	"erpconsole/internal/querycache"
	"erpconsole/internal/rbac"
)

// Screen is a permission-gated page of the console.
type Screen struct {
	Name     string
	Entity   string
	Requires rbac.Permission
	// Manage is the permission behind the create, edit and delete actions.
	// Empty means the usual create, edit and delete permissions.
	Manage rbac.Permission
}

var (
	CustomersScreen = Screen{Name: "Customers", Entity: "customers", Requires: rbac.PermView}
	ProductsScreen  = Screen{Name: "Products", Entity: "products", Requires: rbac.PermView}
	OrdersScreen    = Screen{Name: "Orders", Entity: "orders", Requires: rbac.PermView}
	InvoicesScreen  = Screen{Name: "Invoices", Entity: "invoices", Requires: rbac.PermView}
	PaymentsScreen  = Screen{Name: "Payments", Entity: "payments", Requires: rbac.PermView}
	UsersScreen     = Screen{Name: "Users", Entity: "users", Requires: rbac.PermManageUsers, Manage: rbac.PermManageUsers}
	AuditScreen     = Screen{Name: "Audit log", Entity: "audit-logs", Requires: rbac.PermViewReports}
)

// AccessDeniedError is rendered in place of a screen the role may not open.
type AccessDeniedError struct {
	Screen string
	Role   rbac.Role
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("Access denied: the %s role cannot open %s", e.Role, e.Screen)
}

// Open checks that caps may see the screen.
func (s Screen) Open(caps rbac.Capabilities) error {
	if !caps.Has(s.Requires) {
		return &AccessDeniedError{Screen: s.Name, Role: caps.Role}
	}
	return nil
}

// Actions are the buttons a screen shows.
type Actions struct {
	Create bool
	Edit   bool
	Delete bool
}

// Actions derives the enabled actions for caps.
func (s Screen) Actions(caps rbac.Capabilities) Actions {
	if s.Manage != "" {
		ok := caps.Has(s.Manage)
		return Actions{Create: ok, Edit: ok, Delete: ok}
	}
	return Actions{Create: caps.CanCreate, Edit: caps.CanEdit, Delete: caps.CanDelete}
}

// Require returns an AccessDeniedError unless caps holds p for this screen's action.
func (s Screen) Require(caps rbac.Capabilities, p rbac.Permission) error {
	if s.Manage != "" {
		p = s.Manage
	}
	if !caps.Has(p) {
		return &AccessDeniedError{Screen: s.Name + " (" + string(p) + ")", Role: caps.Role}
	}
	return nil
}

// List is an opened screen: the gate has passed and the table holds the
// entity's full list, fetched through the cache.
type List[T any] struct {
	Screen  Screen
	Table   *Table[T]
	Actions Actions
}

// OpenList gates the screen, then loads every record into a table.
func OpenList[T any](ctx context.Context, s Screen, caps rbac.Capabilities, cache *querycache.Cache, cfg TableConfig[T], load func(context.Context) ([]T, error)) (*List[T], error) {
	return OpenListAt(ctx, s, querycache.ListKey(s.Entity), caps, cache, cfg, load)
}

// OpenListAt is OpenList with an explicit cache key, for loads whose
// parameters change the result set.
func OpenListAt[T any](ctx context.Context, s Screen, key string, caps rbac.Capabilities, cache *querycache.Cache, cfg TableConfig[T], load func(context.Context) ([]T, error)) (*List[T], error) {
	if err := s.Open(caps); err != nil {
		return nil, err
	}
	items, err := querycache.Fetch(ctx, cache, key, load)
	if err != nil {
		return nil, err
	}
	t := NewTable(cfg)
	t.SetItems(items)
	return &List[T]{Screen: s, Table: t, Actions: s.Actions(caps)}, nil
}
