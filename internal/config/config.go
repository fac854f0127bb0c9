package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// GatewayConfig holds the tunables for the request security gateway:
// rate-limit windows, the fail-open/fail-closed policy and the event
// queue depth.
type GatewayConfig struct {
	// RequestsPerMinute is the burst window limit applied per client IP.
	RequestsPerMinute int
	// RequestsPerHour is the sustained-abuse window limit per client IP.
	RequestsPerHour int
	// FailClosed rejects requests when a security backend is unreachable.
	// The default (false) prioritizes availability: on backend errors the
	// request is allowed and a diagnostic is logged.
	FailClosed bool
	// EventQueueSize bounds the async security event queue. When the queue
	// is full the oldest pending event is dropped.
	EventQueueSize int
}

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment   string
	HTTPPort      string
	DatabasePath  string
	JWTSecret     string
	ComplianceURL string
	// NotificationURLs are shoutrrr URLs used for critical alert escalation.
	NotificationURLs []string
	Gateway          GatewayConfig
}

// Load reads env vars (optionally seeded from a .env file) and falls back to
// defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	// Best-effort: a missing .env is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Environment:   getEnv("WARDEN_ENV", "development"),
		HTTPPort:      getEnv("WARDEN_HTTP_PORT", "8080"),
		DatabasePath:  getEnv("WARDEN_DB_PATH", filepath.Join("data", "warden.db")),
		JWTSecret:     getEnv("WARDEN_JWT_SECRET", ""),
		ComplianceURL: getEnv("WARDEN_COMPLIANCE_URL", ""),
		Gateway: GatewayConfig{
			RequestsPerMinute: getEnvInt("WARDEN_RATE_LIMIT_PER_MINUTE", 100),
			RequestsPerHour:   getEnvInt("WARDEN_RATE_LIMIT_PER_HOUR", 1000),
			FailClosed:        getEnvBool("WARDEN_FAIL_CLOSED", false),
			EventQueueSize:    getEnvInt("WARDEN_EVENT_QUEUE_SIZE", 1024),
		},
	}

	if raw := os.Getenv("WARDEN_NOTIFY_URLS"); raw != "" {
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.NotificationURLs = append(cfg.NotificationURLs, u)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in a development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment != "production" && c.Environment != "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}

	return fallback
}
