package live

import (
	"context"
	"testing"
	"time"

	"erpconsole/internal/api"
	"erpconsole/internal/apiclient"
	"erpconsole/internal/querycache"
	"erpconsole/internal/testutil"
	"erpconsole/internal/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	u, err := URL("http://localhost:8080/api/v1")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/v1/ws", u)

	u, err = URL("https://erp.example.com/api/v1")
	require.NoError(t, err)
	assert.Equal(t, "wss://erp.example.com/api/v1/ws", u)

	_, err = URL("ftp://example.com")
	assert.Error(t, err)
}

func login(t *testing.T, backend *testutil.Backend) (*api.API, *api.TokenPair) {
	t.Helper()
	store := tokenstore.NewMemoryStore()
	a := api.New(apiclient.New(backend.APIURL(), store))
	pair, err := a.Auth.Login(context.Background(), testutil.AdminEmail, testutil.AdminPassword)
	require.NoError(t, err)
	require.NoError(t, store.SetAuthFromTokens(pair.AccessToken, pair.RefreshToken, pair.User.Profile()))
	return a, pair
}

func TestChangeInvalidatesCache(t *testing.T) {
	backend := testutil.NewBackend(t)
	a, _ := login(t, backend)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := querycache.New(0)
	_, err := querycache.Fetch(ctx, cache, querycache.ListKey("customers"), func(context.Context) ([]api.Customer, error) {
		return nil, nil
	})
	require.NoError(t, err)
	_, err = querycache.Fetch(ctx, cache, querycache.ListKey("products"), func(context.Context) ([]api.Product, error) {
		return nil, nil
	})
	require.NoError(t, err)

	sub := New(a.Client, cache)
	events := make(chan Event, 4)
	sub.OnEvent(func(ev Event) { events <- ev })

	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()
	require.Eventually(t, func() bool { return backend.API.Hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	created, err := a.Customers.Create(ctx, api.CustomerInput{Name: "Acme"})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "customers", ev.Entity)
		assert.Equal(t, "created", ev.Action)
		assert.Equal(t, created.ID, ev.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
	_, ok := cache.Peek(querycache.ListKey("customers"))
	assert.False(t, ok)
	_, ok = cache.Peek(querycache.ListKey("products"))
	assert.True(t, ok)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestExpiredTokenIsRefreshedBeforeConnecting(t *testing.T) {
	backend := testutil.NewBackend(t)
	a, pair := login(t, backend)
	store := a.Client.Store()
	require.NoError(t, store.SetAuthFromTokens("expired", pair.RefreshToken, pair.User.Profile()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = New(a.Client, querycache.New(0)).Run(ctx) }()

	require.Eventually(t, func() bool { return backend.API.Hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, "expired", store.AccessToken())
}

func TestRunStopsWhenSessionCannotBeRefreshed(t *testing.T) {
	backend := testutil.NewBackend(t)
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.SetAuthFromTokens("expired", "revoked", &tokenstore.User{Email: "x@example.com"}))
	client := apiclient.New(backend.APIURL(), store)

	err := New(client, querycache.New(0)).Run(context.Background())
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Empty(t, store.AccessToken())
}
