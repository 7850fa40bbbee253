package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Upstream affiliate API
	UpstreamURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Caching
	DashboardCacheTTL time.Duration

	// Session persistence
	StateFile       string
	TokenStorageKey string

	// Login throttling
	LoginRatePerMin int
	LoginBurst      int

	// Observability
	OTLPEndpoint string

	// Operator access (protects /metrics and /ops when set).
	// Bcrypt hash of the operator password; empty disables the check.
	OperatorUser         string
	OperatorPasswordHash string

	// Error reporting
	ErrorLogSize int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		UpstreamURL: getEnv("UPSTREAM_API_URL", "http://localhost:8081"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		DashboardCacheTTL: getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),

		StateFile:       getEnv("STATE_FILE", "data/gateway_state.json"),
		TokenStorageKey: getEnv("TOKEN_STORAGE_KEY", "auth_token"),

		LoginRatePerMin: getEnvInt("LOGIN_RATE_PER_MIN", 10),
		LoginBurst:      getEnvInt("LOGIN_BURST", 5),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		OperatorUser:         getEnv("OPERATOR_USER", "ops"),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),

		ErrorLogSize: getEnvInt("ERROR_LOG_SIZE", 100),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
