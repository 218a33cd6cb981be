package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erpconsole/internal/config"
	"erpconsole/internal/database"
	"erpconsole/internal/logger"
	"erpconsole/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Meta       *struct {
		Total  int64 `json:"total"`
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
	} `json:"meta"`
	Error  string `json:"error"`
	Detail []struct {
		Loc []string `json:"loc"`
		Msg string   `json:"msg"`
	} `json:"detail"`
}

type testServer struct {
	t   *testing.T
	srv *Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(sqlite.Open("file:srv_" + name + "?mode=memory&cache=shared"))
	require.NoError(t, err)

	srv := New(&config.Server{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		CORSOrigins:     []string{"http://localhost:5173"},
	}, db)
	_, err = srv.Users.EnsureAdmin(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)
	return &testServer{t: t, srv: srv}
}

func (ts *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, APIPrefix+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (ts *testServer) login(email, password string) service.TokenResponse {
	ts.t.Helper()
	code, env := ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(ts.t, http.StatusOK, code, env.Error)
	var tokens service.TokenResponse
	require.NoError(ts.t, json.Unmarshal(env.Data, &tokens))
	return tokens
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	code, _ := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestLoginMeAndRefresh(t *testing.T) {
	ts := newTestServer(t)
	tokens := ts.login("admin@example.com", "admin123")
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.RefreshToken)

	code, env := ts.do(http.MethodGet, "/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var me service.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "admin@example.com", me.Email)

	code, env = ts.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = ts.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error", env.Status)
}

func TestRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	code, _ := ts.do(http.MethodGet, "/customers/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.do(http.MethodGet, "/customers/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCustomerRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin@example.com", "admin123").AccessToken

	code, env := ts.do(http.MethodPost, "/customers/", token, map[string]string{"name": "Acme", "email": "ops@acme.test"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var created struct {
		ID       uuid.UUID `json:"id"`
		Name     string    `json:"name"`
		Currency string    `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "USD", created.Currency)

	code, env = ts.do(http.MethodGet, "/customers/?q=acme", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)
	assert.Equal(t, 50, env.Meta.Limit)

	code, env = ts.do(http.MethodPut, "/customers/"+created.ID.String(), token, map[string]string{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = ts.do(http.MethodDelete, "/customers/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, code)
	var deleted struct {
		ID      uuid.UUID `json:"id"`
		Deleted bool      `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.True(t, deleted.Deleted)

	_, env = ts.do(http.MethodGet, "/customers/", token, nil)
	assert.Equal(t, int64(0), env.Meta.Total)

	_, env = ts.do(http.MethodGet, "/customers/?include_deleted=true", token, nil)
	assert.Equal(t, int64(1), env.Meta.Total)
}

func TestValidationDetail(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin@example.com", "admin123").AccessToken

	code, env := ts.do(http.MethodPost, "/customers/", token, map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotEmpty(t, env.Detail)
	locs := make([][]string, 0, len(env.Detail))
	for _, d := range env.Detail {
		locs = append(locs, d.Loc)
	}
	assert.Contains(t, locs, []string{"body", "name"})
	assert.Contains(t, locs, []string{"body", "email"})

	code, _ = ts.do(http.MethodGet, "/customers/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(http.MethodGet, "/customers/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRoleGates(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login("admin@example.com", "admin123").AccessToken

	for _, u := range []map[string]string{
		{"email": "manager@example.com", "password": "secret1", "role": "manager"},
		{"email": "staff@example.com", "password": "secret1", "role": "staff"},
	} {
		code, env := ts.do(http.MethodPost, "/users/", admin, u)
		require.Equal(t, http.StatusCreated, code, env.Error)
	}

	manager := ts.login("manager@example.com", "secret1").AccessToken
	code, _ := ts.do(http.MethodGet, "/users/", manager, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.do(http.MethodGet, "/audit-logs/", manager, nil)
	assert.Equal(t, http.StatusOK, code)

	staff := ts.login("staff@example.com", "secret1").AccessToken
	code, env := ts.do(http.MethodPost, "/customers/", staff, map[string]string{"name": "Globex"})
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, _ = ts.do(http.MethodDelete, "/customers/"+created.ID.String(), staff, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.do(http.MethodGet, "/audit-logs/", staff, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin@example.com", "admin123").AccessToken

	_, env := ts.do(http.MethodPost, "/customers/", token, map[string]string{"name": "Acme"})
	var customer struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &customer))

	_, env = ts.do(http.MethodPost, "/products/", token, map[string]interface{}{"sku": "W-1", "name": "Widget", "price": "10"})
	var product struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))

	code, env := ts.do(http.MethodPost, "/orders/", token, map[string]interface{}{"customer_id": customer.ID, "lines": []interface{}{}})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotEmpty(t, env.Detail)
	assert.Equal(t, []string{"body", "lines"}, env.Detail[0].Loc)

	code, env = ts.do(http.MethodPost, "/orders/", token, map[string]interface{}{
		"customer_id": customer.ID,
		"lines":       []map[string]interface{}{{"product_id": product.ID, "quantity": "2"}},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var order struct {
		ID     uuid.UUID       `json:"id"`
		Status string          `json:"status"`
		Total  decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "draft", order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(20)), order.Total.String())

	code, env = ts.do(http.MethodPost, "/orders/"+order.ID.String()+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "confirmed", order.Status)
}
