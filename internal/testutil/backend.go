// Package testutil starts a real API server on an in-memory database for
// console package tests.
package testutil

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erpconsole/internal/config"
	"erpconsole/internal/database"
	"erpconsole/internal/logger"
	"erpconsole/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
)

// Backend is a running API server.
type Backend struct {
	*httptest.Server
	API *server.Server
}

// APIURL is the versioned API root of the backend.
func (b *Backend) APIURL() string {
	return b.URL + server.APIPrefix
}

// NewBackend serves the API over httptest with a seeded admin account. The
// websocket hub is running and both stop when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open("file:backend_" + name + "?mode=memory&cache=shared"))
	require.NoError(t, err)

	srv := server.New(&config.Server{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		CORSOrigins:     []string{"http://localhost:5173"},
	}, db)
	_, err = srv.Users.EnsureAdmin(context.Background(), AdminEmail, AdminPassword)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Hub.Run(ctx)

	ts := httptest.NewServer(srv.Router)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return &Backend{Server: ts, API: srv}
}
