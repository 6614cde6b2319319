package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/joho/godotenv"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod, test) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired reset token sweep interval (default: 1h)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite file (default: ./taskboard.db)
	DatabaseURL    string // Postgres connection URL, required for the postgres driver
	PepperFile     string // File holding the password pepper (default: ./pepper)

	Issuer             string        // iss claim (default: taskboard)
	AccessTokenSecret  string        // Required
	AccessTokenExpiry  time.Duration // default: 24h
	RefreshTokenSecret string        // Required, must differ from the access secret
	RefreshTokenExpiry time.Duration // default: 168h
	BootstrapToken     string        // Optional: enables POST /auth/bootstrap while no admin exists

	CookieDomain   string // default: localhost
	CookieSecure   bool
	CookieSameSite string // lax, strict or none (default: lax)

	FrontendURL   string        // Base of password reset links (default: http://localhost:3000)
	ResetTokenTTL time.Duration // default: 10m

	KafkaBrokers    []string // Optional: reset notices go to Kafka when set
	KafkaResetTopic string

	RedisAddrs       []string      // Optional: enables failed-login lockout
	LoginMaxAttempts int           // default: 5
	LoginLockout     time.Duration // default: 15m

	// Rate limit profiles, each overridable with RATELIMIT_{PROFILE}_REQUESTS,
	// RATELIMIT_{PROFILE}_WINDOW_SEC and RATELIMIT_{PROFILE}_BURST
	StrictLimit   httpx.RateLimitConfig
	ModerateLimit httpx.RateLimitConfig
	LenientLimit  httpx.RateLimitConfig
	PublicLimit   httpx.RateLimitConfig
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first if present; real environment
// variables take precedence over it.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "taskboard.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PepperFile:     getEnvOrDefault("PEPPER_FILE", "pepper"),

		Issuer:             getEnvOrDefault("JWT_ISSUER", "taskboard"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessTokenExpiry:  getEnvDurationOrDefault("ACCESS_TOKEN_EXPIRY", 24*time.Hour),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		RefreshTokenExpiry: getEnvDurationOrDefault("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		BootstrapToken:     os.Getenv("BOOTSTRAP_TOKEN"),

		CookieDomain:   getEnvOrDefault("COOKIE_DOMAIN", "localhost"),
		CookieSecure:   getEnvBoolOrDefault("COOKIE_SECURE", false),
		CookieSameSite: strings.ToLower(getEnvOrDefault("COOKIE_SAMESITE", "lax")),

		FrontendURL:   getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		ResetTokenTTL: getEnvDurationOrDefault("RESET_TOKEN_TTL", 10*time.Minute),

		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		KafkaResetTopic: os.Getenv("KAFKA_RESET_TOPIC"),

		RedisAddrs:       getEnvList("REDIS_ADDR"),
		LoginMaxAttempts: getEnvIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockout:     getEnvDurationOrDefault("LOGIN_LOCKOUT", 15*time.Minute),

		StrictLimit:   getEnvRateLimit("STRICT", httpx.StrictLimit),
		ModerateLimit: getEnvRateLimit("MODERATE", httpx.ModerateLimit),
		LenientLimit:  getEnvRateLimit("LENIENT", httpx.LenientLimit),
		PublicLimit:   getEnvRateLimit("PUBLIC", httpx.PublicLimit),
	}
}

// IsDev reports whether error details may be shown to clients.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "test"
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.AccessTokenSecret == "":
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	case c.Env == "prod" && len(c.AccessTokenSecret) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_SECRET must be at least %d bytes in prod", jwtx.MinSecretLength))
	}

	switch {
	case c.RefreshTokenSecret == "":
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	case c.Env == "prod" && len(c.RefreshTokenSecret) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_SECRET must be at least %d bytes in prod", jwtx.MinSecretLength))
	case c.RefreshTokenSecret == c.AccessTokenSecret:
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET must differ from ACCESS_TOKEN_SECRET"))
	}

	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not sqlite or postgres", c.DatabaseDriver))
	}

	switch c.CookieSameSite {
	case "lax", "strict":
	case "none":
		if !c.CookieSecure {
			errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
		}
	default:
		errs = append(errs, fmt.Errorf("COOKIE_SAMESITE %q is not lax, strict or none", c.CookieSameSite))
	}

	limits := []struct {
		name string
		cfg  httpx.RateLimitConfig
	}{
		{"STRICT", c.StrictLimit},
		{"MODERATE", c.ModerateLimit},
		{"LENIENT", c.LenientLimit},
		{"PUBLIC", c.PublicLimit},
	}
	for _, l := range limits {
		if l.cfg.RequestsPerWindow <= 0 || l.cfg.Window <= 0 || l.cfg.Burst <= 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_%s must have positive requests, window and burst", l.name))
		}
	}

	return errors.Join(errs...)
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

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvRateLimit overrides the fields of def that are set in the
// environment. Unparseable values keep the default.
func getEnvRateLimit(profile string, def httpx.RateLimitConfig) httpx.RateLimitConfig {
	prefix := "RATELIMIT_" + profile + "_"
	return httpx.RateLimitConfig{
		RequestsPerWindow: getEnvIntOrDefault(prefix+"REQUESTS", def.RequestsPerWindow),
		Window:            time.Duration(getEnvIntOrDefault(prefix+"WINDOW_SEC", int(def.Window/time.Second))) * time.Second,
		Burst:             getEnvIntOrDefault(prefix+"BURST", def.Burst),
	}
}
