package app

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret-0123456789abcdef0123456789"
	refreshSecret = "refresh-secret-0123456789abcdef0123456789"
)

func validConfig() Config {
	return Config{
		Env:                "test",
		DatabaseDriver:     "sqlite",
		AccessTokenSecret:  accessSecret,
		AccessTokenExpiry:  time.Hour,
		RefreshTokenSecret: refreshSecret,
		RefreshTokenExpiry: 24 * time.Hour,
		CookieSameSite:     "lax",
		StrictLimit:        httpx.StrictLimit,
		ModerateLimit:      httpx.ModerateLimit,
		LenientLimit:       httpx.LenientLimit,
		PublicLimit:        httpx.PublicLimit,
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_SECRET", accessSecret)
	t.Setenv("REFRESH_TOKEN_SECRET", refreshSecret)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "30m")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "90") // minutes
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("COOKIE_SAMESITE", "Strict")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "50")
	t.Setenv("RATELIMIT_STRICT_WINDOW_SEC", "10")
	t.Setenv("RATELIMIT_STRICT_BURST", "lots")
	t.Setenv("BOOTSTRAP_TOKEN", "let-me-in")

	cfg := LoadConfig()

	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenExpiry)
	require.Equal(t, 90*time.Minute, cfg.RefreshTokenExpiry)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, "strict", cfg.CookieSameSite)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Empty(t, cfg.RedisAddrs)
	require.Equal(t, 5, cfg.LoginMaxAttempts)
	require.Equal(t, httpx.RateLimitConfig{RequestsPerWindow: 50, Window: 10 * time.Second, Burst: httpx.StrictLimit.Burst}, cfg.StrictLimit)
	require.Equal(t, httpx.ModerateLimit, cfg.ModerateLimit)
	require.Equal(t, "let-me-in", cfg.BootstrapToken)

	// Defaults
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "localhost", cfg.CookieDomain)
	require.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	require.Equal(t, 10*time.Minute, cfg.ResetTokenTTL)
	require.Equal(t, 15*time.Minute, cfg.LoginLockout)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:   "missing access secret",
			mutate: func(c *Config) { c.AccessTokenSecret = "" },
			errMsg: "ACCESS_TOKEN_SECRET is required",
		},
		{
			name:   "missing refresh secret",
			mutate: func(c *Config) { c.RefreshTokenSecret = "" },
			errMsg: "REFRESH_TOKEN_SECRET is required",
		},
		{
			name:   "same secrets",
			mutate: func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret },
			errMsg: "must differ",
		},
		{
			name: "short secrets are fine outside prod",
			mutate: func(c *Config) {
				c.AccessTokenSecret = "a"
				c.RefreshTokenSecret = "b"
			},
		},
		{
			name: "short secrets fail in prod",
			mutate: func(c *Config) {
				c.Env = "prod"
				c.AccessTokenSecret = "short"
			},
			errMsg: "at least 32 bytes",
		},
		{
			name:   "postgres needs a url",
			mutate: func(c *Config) { c.DatabaseDriver = "postgres" },
			errMsg: "DATABASE_URL",
		},
		{
			name:   "unknown driver",
			mutate: func(c *Config) { c.DatabaseDriver = "mysql" },
			errMsg: "not sqlite or postgres",
		},
		{
			name:   "samesite none needs secure",
			mutate: func(c *Config) { c.CookieSameSite = "none" },
			errMsg: "COOKIE_SECURE",
		},
		{
			name:   "zero expiry",
			mutate: func(c *Config) { c.AccessTokenExpiry = 0 },
			errMsg: "expiries must be positive",
		},
		{
			name:   "zero rate limit window",
			mutate: func(c *Config) { c.LenientLimit.Window = 0 },
			errMsg: "RATELIMIT_LENIENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestConfigValidateReportsEverything(t *testing.T) {
	cfg := validConfig()
	cfg.AccessTokenSecret = ""
	cfg.RefreshTokenSecret = ""
	cfg.PublicLimit = httpx.RateLimitConfig{}

	err := cfg.Validate()
	require.ErrorContains(t, err, "ACCESS_TOKEN_SECRET")
	require.ErrorContains(t, err, "REFRESH_TOKEN_SECRET")
	require.ErrorContains(t, err, "RATELIMIT_PUBLIC")
}

func TestConfigValidateOrderIsStable(t *testing.T) {
	cfg := validConfig()
	cfg.StrictLimit = httpx.RateLimitConfig{}
	cfg.ModerateLimit = httpx.RateLimitConfig{}
	cfg.LenientLimit = httpx.RateLimitConfig{}
	cfg.PublicLimit = httpx.RateLimitConfig{}

	want := cfg.Validate().Error()
	for range 20 {
		require.Equal(t, want, cfg.Validate().Error())
	}

	strict := strings.Index(want, "RATELIMIT_STRICT")
	moderate := strings.Index(want, "RATELIMIT_MODERATE")
	lenient := strings.Index(want, "RATELIMIT_LENIENT")
	public := strings.Index(want, "RATELIMIT_PUBLIC")
	require.True(t, strict < moderate && moderate < lenient && lenient < public, want)
}
