package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Issuer:          "gatehouse",
		Algorithm:       "EdDSA",
		SecretFile:      "secret",
		SessionStrategy: "bearer",
		AccessTTL:       15 * time.Minute,
		RefreshTTL:      7 * 24 * time.Hour,
		SessionTTL:      7 * 24 * time.Hour,
		Routes:          "/dashboard=user,/admin=admin",
		DatabaseDriver:  DriverSQLite,
		DatabaseFile:    "auth.db",
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "EdDSA", cfg.Algorithm)
	require.Equal(t, "bearer", cfg.SessionStrategy)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, uint(3), cfg.StoreRetries)
	require.False(t, cfg.GoogleEnabled())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("AUTH_SESSION_STRATEGY", "cookie")
	t.Setenv("AUTH_ACCESS_TTL", "5m")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "cookie", cfg.SessionStrategy)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.False(t, cfg.CookieSecure)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.SessionStrategy = "magic" },
			wantErr: "AUTH_SESSION_STRATEGY",
		},
		{
			name:    "unknown algorithm",
			mutate:  func(c *Config) { c.Algorithm = "RS256" },
			wantErr: "AUTH_ALGORITHM",
		},
		{
			name: "short hs256 secret",
			mutate: func(c *Config) {
				c.Algorithm = "HS256"
				c.Secret = "too-short"
			},
			wantErr: "at least 32 bytes",
		},
		{
			name: "hs256 secret file",
			mutate: func(c *Config) {
				c.Algorithm = "HS256"
			},
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.DatabaseDriver = DriverPostgres },
			wantErr: "AUTH_DATABASE_URL",
		},
		{
			name:    "bad routes",
			mutate:  func(c *Config) { c.Routes = "/admin=root" },
			wantErr: "AUTH_ROUTES",
		},
		{
			name:    "access outlives refresh",
			mutate:  func(c *Config) { c.AccessTTL = 30 * 24 * time.Hour },
			wantErr: "shorter than AUTH_REFRESH_TTL",
		},
		{
			name:    "relative upstream",
			mutate:  func(c *Config) { c.UpstreamURL = "/app" },
			wantErr: "AUTH_UPSTREAM_URL",
		},
		{
			name:    "partial google",
			mutate:  func(c *Config) { c.GoogleClientID = "id" },
			wantErr: "must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsAll(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SessionStrategy = "magic"
	cfg.Algorithm = "RS256"

	err := cfg.Validate()
	require.ErrorContains(t, err, "AUTH_SESSION_STRATEGY")
	require.ErrorContains(t, err, "AUTH_ALGORITHM")
}
