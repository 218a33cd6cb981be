package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.NotEmpty(t, cfg.CORSOrigins)
}

func TestLoadServerRequiresSecretInRelease(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "release")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadServerRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Server{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "erp", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/erp?sslmode=disable", cfg.PostgresDSN())
}

func TestLoadConsole(t *testing.T) {
	t.Setenv("ERP_API_URL", "https://erp.example.com/api/v1/")
	t.Setenv("ERP_SESSION_BACKEND", "memory")
	t.Setenv("ERP_PAGE_SIZE", "25")

	cfg, err := LoadConsole()
	require.NoError(t, err)
	assert.Equal(t, "https://erp.example.com/api/v1", cfg.APIURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "stderr", cfg.Log.Output)
}

func TestLoadConsoleFallsBackToDefaultURL(t *testing.T) {
	t.Setenv("ERP_API_URL", "")
	t.Setenv("ERP_SESSION_BACKEND", "")

	cfg, err := LoadConsole()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "file", cfg.SessionBackend)
}

func TestLoadConsoleRejectsBadBackend(t *testing.T) {
	t.Setenv("ERP_SESSION_BACKEND", "cookie")

	_, err := LoadConsole()
	assert.Error(t, err)
}
