package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"erpconsole/internal/logger"
)

// Server holds the API server configuration.
type Server struct {
	Port    string
	GinMode string

	DBDriver   string // postgres, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CORSOrigins []string

	AdminEmail    string
	AdminPassword string

	Log logger.LogConfig
}

// Console holds the operator console configuration.
type Console struct {
	APIURL         string
	SessionBackend string // file, redis, memory
	SessionFile    string
	RedisAddress   string
	RedisPrefix    string
	PageSize       int
	HTTPTimeout    time.Duration

	Log logger.LogConfig
}

// DefaultAPIURL is used when ERP_API_URL is not set.
const DefaultAPIURL = "http://localhost:8080/api/v1"

const devJWTSecret = "default_super_secret_key"

// LoadServer reads the API server configuration from the environment.
func LoadServer() (*Server, error) {
	accessTTL, err := getDuration("ACCESS_TOKEN_TTL", 60*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Server{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "postgres"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		SQLitePath:      getEnv("SQLITE_PATH", "erp.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")),
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		Log:             loadLog(),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Server) validate() error {
	if c.JWTSecret == "" {
		if c.GinMode == "release" {
			return fmt.Errorf("JWT_SECRET is required in release mode")
		}
		c.JWTSecret = devJWTSecret
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// PostgresDSN builds the connection URL from the DB_* settings.
func (c *Server) PostgresDSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// LoadConsole reads the console configuration from the environment.
func LoadConsole() (*Console, error) {
	timeout, err := getDuration("ERP_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	pageSize, err := getInt("ERP_PAGE_SIZE", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Console{
		APIURL:         strings.TrimRight(getEnv("ERP_API_URL", DefaultAPIURL), "/"),
		SessionBackend: getEnv("ERP_SESSION_BACKEND", "file"),
		SessionFile:    getEnv("ERP_SESSION_FILE", defaultSessionFile()),
		RedisAddress:   getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPrefix:    getEnv("ERP_REDIS_PREFIX", "erpconsole"),
		PageSize:       pageSize,
		HTTPTimeout:    timeout,
		Log:            loadLog(),
	}
	if cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Console) validate() error {
	switch c.SessionBackend {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("ERP_SESSION_BACKEND must be file, redis or memory, got %q", c.SessionBackend)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("ERP_PAGE_SIZE must be at least 1")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("ERP_API_URL must be an http(s) URL")
	}
	return nil
}

func loadLog() logger.LogConfig {
	return logger.LogConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "console"),
		TimeFormat: getEnv("LOG_TIME_FORMAT", time.RFC3339),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".erpconsole-session.json"
	}
	return dir + string(os.PathSeparator) + "erpconsole" + string(os.PathSeparator) + "session.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
