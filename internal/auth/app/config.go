package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/plumeworks/plume/internal/auth/domain"
	"github.com/plumeworks/plume/internal/auth/service"
	"github.com/plumeworks/plume/pkg/jwtx"
)

type Config struct {
	JWTSecret string // Required in prod: HMAC secret for token signing
	Issuer    string // Optional: issuer claim for tokens (default: plume-auth)

	AccessTTL       time.Duration // Optional: access token lifetime (default: 10s)
	RefreshTTL      time.Duration // Optional: refresh token lifetime (default: 20s)
	ConfirmationTTL time.Duration // Optional: confirmation code lifetime (default: 90m)

	RateLimitThreshold int           // Optional: max requests per (addr, endpoint) window (default: 5)
	RateLimitWindow    time.Duration // Optional: trailing window size (default: 10s)

	AdminLogin    string // Optional: basic-auth login for /users (default: admin)
	AdminPassword string // Optional: basic-auth password for /users (default: qwerty)

	ConfirmURL   string // Optional: page the confirmation email links to
	SMTPAddr     string // Optional: host:port of the SMTP relay; empty logs mail instead
	SMTPUsername string // Optional: SMTP auth username
	SMTPPassword string // Optional: SMTP auth password
	SMTPFrom     string // Optional: From address on outbound mail

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./auth.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	RequestRetention     time.Duration // Request-log retention (default: 24h)
	EnableTestingRoutes  bool          // Expose DELETE /testing/all-data (default: false)
}

func LoadConfig() Config {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	return Config{
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "plume-auth"),

		AccessTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:      getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		ConfirmationTTL: getEnvDurationOrDefault("AUTH_CONFIRMATION_TTL", domain.DefaultConfirmationTTL),

		RateLimitThreshold: getEnvIntOrDefault("RATE_LIMIT_THRESHOLD", service.DefaultRateLimitThreshold),
		RateLimitWindow:    getEnvDurationOrDefault("RATE_LIMIT_WINDOW", service.DefaultRateLimitWindow),

		AdminLogin:    getEnvOrDefault("ADMIN_LOGIN", "admin"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "qwerty"),

		ConfirmURL:   getEnvOrDefault("CONFIRM_URL", "http://localhost:8080/auth/registration-confirmation"),
		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),

		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		RequestRetention:     getEnvDurationOrDefault("REQUEST_RETENTION", 24*time.Hour),
		EnableTestingRoutes:  getEnvBoolOrDefault("ENABLE_TESTING_ROUTES", false),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
