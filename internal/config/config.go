package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dashboard server
type Config struct {
	// HTTP listener
	Server ServerConfig

	// Backend API endpoints
	Backend BackendConfig

	// Browser session handling
	Session SessionConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Address        string
	AllowedOrigins []string
}

// BackendConfig holds the base URLs of every backend the dashboard talks to
type BackendConfig struct {
	APIBaseURL              string // auth + internal users
	OrganizationsURL        string
	TicketsURL              string
	PlanifikaUsersURL       string
	PlanifikaServiceRoleKey string
	StatsURL                string
	Timeout                 time.Duration
}

// SessionConfig holds browser session configuration
type SessionConfig struct {
	Backend      string // cookie, redis
	Secret       string
	CookieSecure bool
	SameSite     string // strict, lax, none
	TTL          time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "5h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}

	cookieSecure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	apiBaseURL := getEnv("API_BASE_URL", "http://localhost:8080/api/v1")

	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("LISTEN_ADDRESS", ":3000"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Backend: BackendConfig{
			APIBaseURL: apiBaseURL,
			// The organizations and tickets services live behind the core API
			// unless deployed separately
			OrganizationsURL:        getEnv("ORGANIZATIONS_API_URL", apiBaseURL),
			TicketsURL:              getEnv("TICKETS_API_URL", apiBaseURL),
			PlanifikaUsersURL:       os.Getenv("PLANIFIKA_USERS_API_URL"),
			PlanifikaServiceRoleKey: os.Getenv("PLANIFIKA_SERVICE_ROLE_KEY"),
			StatsURL:                getEnv("STATS_API_URL", "http://localhost:5000"),
			Timeout:                 timeout,
		},
		Session: SessionConfig{
			Backend:      strings.ToLower(getEnv("SESSION_BACKEND", "cookie")),
			Secret:       os.Getenv("SESSION_SECRET"),
			CookieSecure: cookieSecure,
			SameSite:     getEnv("COOKIE_SAMESITE", "lax"),
			TTL:          ttl,
		},
		Redis: RedisConfig{
			Address: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	switch c.Session.Backend {
	case "cookie", "redis":
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q, must be one of: cookie, redis", c.Session.Backend)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
