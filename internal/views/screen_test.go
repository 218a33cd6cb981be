package views

import (
	"context"
	"testing"

	"erpconsole/internal/api"
	"erpconsole/internal/apiclient"
	"erpconsole/internal/querycache"
	"erpconsole/internal/rbac"
	"erpconsole/internal/session"
	"erpconsole/internal/testutil"
	"erpconsole/internal/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nav struct{ path string }

func (n *nav) Navigate(path string) { n.path = path }
func (n *nav) Current() string      { return n.path }

func TestScreenGates(t *testing.T) {
	tests := []struct {
		role   rbac.Role
		screen Screen
		denied bool
	}{
		{rbac.RoleViewer, CustomersScreen, false},
		{rbac.RoleViewer, AuditScreen, true},
		{rbac.RoleStaff, OrdersScreen, false},
		{rbac.RoleManager, UsersScreen, true},
		{rbac.RoleManager, AuditScreen, false},
		{rbac.RoleAdmin, UsersScreen, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.screen.Name, func(t *testing.T) {
			err := tt.screen.Open(rbac.For(tt.role))
			if !tt.denied {
				assert.NoError(t, err)
				return
			}
			var denied *AccessDeniedError
			require.ErrorAs(t, err, &denied)
			assert.Equal(t, tt.role, denied.Role)
		})
	}
}

func TestScreenActions(t *testing.T) {
	assert.Equal(t, Actions{}, OrdersScreen.Actions(rbac.For(rbac.RoleViewer)))
	assert.Equal(t, Actions{Create: true, Edit: true}, OrdersScreen.Actions(rbac.For(rbac.RoleStaff)))
	assert.Equal(t, Actions{Create: true, Edit: true, Delete: true}, OrdersScreen.Actions(rbac.For(rbac.RoleManager)))
	assert.Equal(t, Actions{}, UsersScreen.Actions(rbac.For(rbac.RoleManager)))

	assert.Error(t, OrdersScreen.Require(rbac.For(rbac.RoleStaff), rbac.PermDelete))
	assert.NoError(t, OrdersScreen.Require(rbac.For(rbac.RoleStaff), rbac.PermCreate))
	assert.Error(t, UsersScreen.Require(rbac.For(rbac.RoleManager), rbac.PermCreate))
}

func TestManagerIsDeniedTheUsersScreen(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewBackend(t)

	admin := api.New(apiclient.New(backend.APIURL(), tokenstore.NewMemoryStore()))
	s := session.New(admin.Client.Store(), admin.Auth, &nav{})
	require.NoError(t, s.Login(ctx, testutil.AdminEmail, testutil.AdminPassword))
	_, err := admin.Users.Create(ctx, api.UserInput{Email: "m@example.com", Password: "secret1", Role: "manager"})
	require.NoError(t, err)

	store := tokenstore.NewFileStore(t.TempDir() + "/session.json")
	client := api.New(apiclient.New(backend.APIURL(), store))
	n := &nav{path: session.PathLogin}
	s = session.New(store, client.Auth, n)
	require.NoError(t, s.Login(ctx, "m@example.com", "secret1"))

	assert.Equal(t, session.PathDashboard, n.path)
	assert.NotEmpty(t, store.AccessToken())
	assert.NotEmpty(t, store.RefreshToken())
	require.NotNil(t, store.StoredUser())
	assert.Equal(t, rbac.RoleManager, store.StoredUser().Role)

	cache := querycache.New(0)
	_, err = OpenList(ctx, UsersScreen, s.Capabilities(), cache, UserTable(), func(ctx context.Context) ([]api.User, error) {
		t.Fatal("a denied screen must not fetch")
		return nil, nil
	})
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "Access denied: the manager role cannot open Users", Toast(err))
	assert.Zero(t, cache.Len())
}

func TestOpenListLoadsThroughCache(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewBackend(t)
	a := api.New(apiclient.New(backend.APIURL(), tokenstore.NewMemoryStore()))
	s := session.New(a.Client.Store(), a.Auth, &nav{})
	require.NoError(t, s.Login(ctx, testutil.AdminEmail, testutil.AdminPassword))

	cache := querycache.New(0)
	dialog := NewDialog[api.Customer, api.CustomerInput, api.CustomerInput]("customers", a.Customers, cache, nil, nil)
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		_, err := dialog.Create(ctx, api.CustomerInput{Name: name})
		require.NoError(t, err)
	}

	load := func(ctx context.Context) ([]api.Customer, error) {
		return a.Customers.ListAll(ctx, api.ListParams{})
	}
	list, err := OpenList(ctx, CustomersScreen, s.Capabilities(), cache, CustomerTable(), load)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Table.Total())
	assert.True(t, list.Actions.Delete)

	list.Table.SetSearch("glob")
	require.Len(t, list.Table.Rows(), 1)
	assert.Equal(t, "Globex", list.Table.Rows()[0].Name)

	_, err = dialog.Create(ctx, api.CustomerInput{Name: "Umbrella"})
	require.NoError(t, err)
	list, err = OpenList(ctx, CustomersScreen, s.Capabilities(), cache, CustomerTable(), load)
	require.NoError(t, err)
	assert.Equal(t, 4, list.Table.Total())
}

func TestOpenListAtKeepsDeletedListApart(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewBackend(t)
	a := api.New(apiclient.New(backend.APIURL(), tokenstore.NewMemoryStore()))
	s := session.New(a.Client.Store(), a.Auth, &nav{})
	require.NoError(t, s.Login(ctx, testutil.AdminEmail, testutil.AdminPassword))

	cache := querycache.New(0)
	dialog := NewDialog[api.Customer, api.CustomerInput, api.CustomerInput]("customers", a.Customers, cache, nil, nil)
	_, err := dialog.Create(ctx, api.CustomerInput{Name: "Acme"})
	require.NoError(t, err)
	gone, err := dialog.Create(ctx, api.CustomerInput{Name: "Globex"})
	require.NoError(t, err)
	require.NoError(t, a.Customers.Delete(ctx, gone.ID))

	load := func(deleted bool) func(context.Context) ([]api.Customer, error) {
		return func(ctx context.Context) ([]api.Customer, error) {
			return a.Customers.ListAll(ctx, api.ListParams{IncludeDeleted: deleted})
		}
	}
	list, err := OpenList(ctx, CustomersScreen, s.Capabilities(), cache, CustomerTable(), load(false))
	require.NoError(t, err)
	assert.Equal(t, 1, list.Table.Total())

	list, err = OpenListAt(ctx, CustomersScreen, querycache.DeletedListKey("customers"), s.Capabilities(), cache, CustomerTable(), load(true))
	require.NoError(t, err)
	assert.Equal(t, 2, list.Table.Total())

	list, err = OpenList(ctx, CustomersScreen, s.Capabilities(), cache, CustomerTable(), load(false))
	require.NoError(t, err)
	assert.Equal(t, 1, list.Table.Total())
}
