package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"erpconsole/internal/logger"
	"erpconsole/internal/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	t *testing.T

	mu          sync.Mutex
	validToken  string
	refreshOK   bool
	refreshWait time.Duration
	// stuck keeps rejecting the refreshed token.
	stuck bool
	// rotated marks refresh-1 as spent; refresh tokens are single use.
	rotated bool

	refreshCalls atomic.Int32
	itemCalls    atomic.Int32
	seenAuth     []string
}

func (b *fakeBackend) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(b.t, json.NewEncoder(w).Encode(v))
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/auth/refresh":
		b.refreshCalls.Add(1)
		time.Sleep(b.refreshWait)
		var body map[string]string
		assert.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		b.mu.Lock()
		spent := b.rotated
		b.rotated = true
		b.mu.Unlock()
		if !b.refreshOK || spent || body["refresh_token"] != "refresh-1" {
			b.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"status": "error", "status_code": 401, "error": "invalid refresh token"})
			return
		}
		if !b.stuck {
			b.mu.Lock()
			b.validToken = "access-2"
			b.mu.Unlock()
		}
		b.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success", "status_code": 200,
			"data": map[string]interface{}{
				"access_token": "access-2", "refresh_token": "refresh-2", "token_type": "bearer",
				"user": map[string]interface{}{"email": "a@example.com", "role": "staff"},
			},
		})
	case "/api/v1/auth/login":
		b.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"status": "error", "status_code": 401, "error": "incorrect email or password"})
	case "/api/v1/customers/":
		b.itemCalls.Add(1)
		auth := r.Header.Get("Authorization")
		b.mu.Lock()
		b.seenAuth = append(b.seenAuth, auth)
		valid := b.validToken
		b.mu.Unlock()
		if auth != "Bearer "+valid {
			b.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"status": "error", "status_code": 401, "error": "invalid or expired token"})
			return
		}
		if r.Method == http.MethodPost {
			b.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"status": "error", "status_code": 422, "error": "Validation failed",
				"detail": []map[string]interface{}{{"loc": []string{"body", "name"}, "msg": "field required"}},
			})
			return
		}
		b.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success", "status_code": 200,
			"data": []map[string]string{{"name": "Acme"}},
			"meta": map[string]int{"total": 1, "limit": 50, "offset": 0},
		})
	default:
		http.NotFound(w, r)
	}
}

func setup(t *testing.T, b *fakeBackend) (*Client, *tokenstore.MemoryStore) {
	t.Helper()
	logger.Discard()
	b.t = t
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	store := tokenstore.NewMemoryStore()
	return New(srv.URL+"/api/v1", store), store
}

func TestBearerTokenAttached(t *testing.T) {
	b := &fakeBackend{validToken: "access-1"}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{}))

	var out []map[string]string
	meta, err := c.Get(context.Background(), "/customers/", nil, &out)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, int64(1), meta.Total)
	assert.Equal(t, "Acme", out[0]["name"])
	assert.Equal(t, []string{"Bearer access-1"}, b.seenAuth)
}

func TestNoHeaderWithoutToken(t *testing.T) {
	b := &fakeBackend{validToken: "access-1"}
	c, _ := setup(t, b)

	_, err := c.Get(context.Background(), "/customers/", nil, nil)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, []string{""}, b.seenAuth)
	assert.Zero(t, b.refreshCalls.Load())
}

func TestRefreshAndRetryOnce(t *testing.T) {
	b := &fakeBackend{validToken: "access-expired", refreshOK: true}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{Email: "a@example.com"}))

	_, err := c.Get(context.Background(), "/customers/", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, []string{"Bearer access-1", "Bearer access-2"}, b.seenAuth)
	assert.Equal(t, "access-2", store.AccessToken())
	assert.Equal(t, "refresh-2", store.RefreshToken())
	assert.Equal(t, "staff", string(store.StoredUser().Role))
}

func TestRetriedRequestIsNotRetriedAgain(t *testing.T) {
	b := &fakeBackend{validToken: "never", refreshOK: true, stuck: true}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{}))

	_, err := c.Get(context.Background(), "/customers/", nil, nil)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(2), b.itemCalls.Load())
}

func TestRefreshFailureClearsStore(t *testing.T) {
	b := &fakeBackend{validToken: "access-expired", refreshOK: false}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{}))

	var cleared atomic.Int32
	c.OnAuthCleared(func() { cleared.Add(1) })

	_, err := c.Get(context.Background(), "/customers/", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid refresh token", apiErr.Message, "the refresh error is returned, not the original")

	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.RefreshToken())
	assert.Nil(t, store.StoredUser())
	assert.Equal(t, int32(1), cleared.Load())
	assert.Equal(t, int32(1), b.itemCalls.Load())
}

func TestMissingRefreshTokenClearsAndReturnsOriginal(t *testing.T) {
	b := &fakeBackend{validToken: "access-expired", refreshOK: true}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "", &tokenstore.User{}))

	_, err := c.Get(context.Background(), "/customers/", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid or expired token", apiErr.Message)
	assert.Zero(t, b.refreshCalls.Load())
	assert.Empty(t, store.AccessToken())
	assert.Nil(t, store.StoredUser())
}

func TestLoginFailureDoesNotRefresh(t *testing.T) {
	b := &fakeBackend{refreshOK: true}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{}))

	err := c.Post(context.Background(), "/auth/login", map[string]string{"email": "a@example.com", "password": "x"}, nil)
	assert.True(t, IsUnauthorized(err))
	assert.Zero(t, b.refreshCalls.Load())
	assert.Equal(t, "access-1", store.AccessToken())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	b := &fakeBackend{validToken: "access-expired", refreshOK: true, refreshWait: 50 * time.Millisecond}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{}))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), "/customers/", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, "access-2", store.AccessToken())
}

func TestFileSessionRefreshedOnceAcrossClients(t *testing.T) {
	logger.Discard()
	b := &fakeBackend{t: t, validToken: "access-expired", refreshOK: true, refreshWait: 50 * time.Millisecond}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	// Two console processes reading the same session file.
	path := filepath.Join(t.TempDir(), "session.json")
	first := tokenstore.NewFileStore(path)
	require.NoError(t, first.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{}))
	clients := []*Client{
		New(srv.URL+"/api/v1", first),
		New(srv.URL+"/api/v1", tokenstore.NewFileStore(path)),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(clients))
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), "/customers/", nil, nil)
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	reopened := tokenstore.NewFileStore(path)
	assert.Equal(t, "access-2", reopened.AccessToken())
	assert.Equal(t, "refresh-2", reopened.RefreshToken())
}

func TestFieldErrorsDecoded(t *testing.T) {
	b := &fakeBackend{validToken: "access-1"}
	c, store := setup(t, b)
	require.NoError(t, store.SetAuthFromTokens("access-1", "refresh-1", &tokenstore.User{}))

	err := c.Post(context.Background(), "/customers/", map[string]string{}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	f, ok := apiErr.FirstFieldError()
	require.True(t, ok)
	assert.Equal(t, "body.name", f.Path())
	assert.Equal(t, "body.name: field required", apiErr.Error())
}

func TestErrorFromPlainBody(t *testing.T) {
	apiErr := errorFrom(http.StatusBadGateway, &envelope{}, assert.AnError, []byte("upstream down\n"))
	assert.Equal(t, "upstream down", apiErr.Message)

	apiErr = errorFrom(http.StatusBadRequest, &envelope{Detail: json.RawMessage(`"bad input"`)}, nil, nil)
	assert.Equal(t, "bad input", apiErr.Message)
}
