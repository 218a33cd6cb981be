package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"erpconsole/internal/api"
	"erpconsole/internal/apiclient"
	"erpconsole/internal/rbac"
	"erpconsole/internal/testutil"
	"erpconsole/internal/tokenstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNav struct {
	mu      sync.Mutex
	current string
	visited []string
}

func (n *fakeNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = path
	n.visited = append(n.visited, path)
}

func (n *fakeNav) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

type fakeAuth struct {
	pair      *api.TokenPair
	err       error
	loggedOut []string
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*api.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeAuth) Logout(ctx context.Context, refreshToken string) error {
	f.loggedOut = append(f.loggedOut, refreshToken)
	return nil
}

func TestHydrate(t *testing.T) {
	tests := []struct {
		name   string
		access string
		user   *tokenstore.User
		want   State
	}{
		{"token and user", "a", &tokenstore.User{Email: "a@example.com"}, StateAuthenticated},
		{"token only", "a", nil, StateUnauthenticated},
		{"user only", "", &tokenstore.User{Email: "a@example.com"}, StateUnauthenticated},
		{"empty", "", nil, StateUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tokenstore.NewMemoryStore()
			require.NoError(t, store.SetAuthFromTokens(tt.access, "r", tt.user))
			s := New(store, &fakeAuth{}, &fakeNav{})
			assert.True(t, s.Loading())

			assert.Equal(t, tt.want, s.Hydrate())
			assert.False(t, s.Loading())
		})
	}
}

func TestLoginPersistsAndNavigates(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	nav := &fakeNav{current: PathLogin}
	user := api.User{Email: "m@example.com", Role: rbac.RoleManager}
	user.ID = uuid.New()
	s := New(store, &fakeAuth{pair: &api.TokenPair{AccessToken: "a", RefreshToken: "r", User: user}}, nav)
	s.Hydrate()

	require.NoError(t, s.Login(context.Background(), "m@example.com", "pw"))
	assert.True(t, s.Authenticated())
	assert.Equal(t, PathDashboard, nav.Current())
	assert.Equal(t, "a", store.AccessToken())
	assert.Equal(t, "r", store.RefreshToken())
	assert.Equal(t, user.ID, store.StoredUser().ID)
	assert.Equal(t, rbac.RoleManager, s.Role())
	assert.False(t, s.Capabilities().CanManageUsers)
	assert.True(t, s.Capabilities().CanDelete)
}

func TestLoginFailureLeavesStateAlone(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	nav := &fakeNav{}
	s := New(store, &fakeAuth{err: errors.New("bad credentials")}, nav)
	s.Hydrate()

	assert.Error(t, s.Login(context.Background(), "x@example.com", "pw"))
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Empty(t, nav.visited)
}

func TestLogout(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.SetAuthFromTokens("a", "r", &tokenstore.User{Email: "a@example.com"}))
	auth := &fakeAuth{}
	nav := &fakeNav{current: "/orders"}
	s := New(store, auth, nav)
	s.Hydrate()

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Equal(t, []string{"r"}, auth.loggedOut)
	assert.Empty(t, store.AccessToken())
	assert.Nil(t, store.StoredUser())
	assert.Equal(t, []string{PathLogin}, nav.visited)

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, []string{PathLogin}, nav.visited, "already on the login screen")
}

func TestNoUserDefaultsToViewer(t *testing.T) {
	s := New(tokenstore.NewMemoryStore(), &fakeAuth{}, &fakeNav{})
	s.Hydrate()
	assert.Equal(t, rbac.RoleViewer, s.Role())
	assert.True(t, s.Can(rbac.PermView))
	assert.False(t, s.Can(rbac.PermCreate))
}

func TestFailedRefreshEndsSession(t *testing.T) {
	backend := testutil.NewBackend(t)
	store := tokenstore.NewMemoryStore()
	client := apiclient.New(backend.APIURL(), store)
	a := api.New(client)
	nav := &fakeNav{}
	s := New(store, a.Auth, nav)
	s.Watch(client)

	require.NoError(t, s.Login(context.Background(), testutil.AdminEmail, testutil.AdminPassword))
	require.True(t, s.Authenticated())

	require.NoError(t, store.SetAuthFromTokens("expired", "revoked", store.StoredUser()))
	_, _, err := a.Customers.List(context.Background(), api.ListParams{})
	assert.True(t, apiclient.IsUnauthorized(err))

	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Equal(t, PathLogin, nav.Current())
	assert.Empty(t, store.RefreshToken())
}
