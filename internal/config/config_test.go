package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.NewFromValues(nil)

	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.Equal(t, "http://localhost:8080", cfg.GetBaseURL())
	require.Equal(t, config.MaxFlowTTL, cfg.GetPendingAuthorizationTTL())
	require.Equal(t, 5*time.Minute, cfg.GetAuthCodeTimeout())
	require.Equal(t, "default-client", cfg.GetDefaultClientID())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("*"))
	require.False(t, cfg.GetAllowPKCEPlain())
	require.False(t, cfg.GetPKCEFallback())
	require.False(t, cfg.GetEnableRateLimiting())
	require.Equal(t, "memory", cfg.GetStoreType())
	require.Equal(t, "hosted", cfg.GetUpstreamType())
	require.Equal(t, []string{"openid", "email", "profile", "offline_access"}, cfg.GetOIDCScopes())
	require.Empty(t, cfg.GetResourceUpstream())
}

func TestValues(t *testing.T) {
	cfg := config.NewFromValues(map[string]string{
		"PORT":              "9000",
		"BASE_URL":          "https://auth.example.com/",
		"ALLOWED_ORIGINS":   "https://a.example.com, https://b.example.com",
		"CODE_TTL":          "2m",
		"REGISTRATION_RATE": "30",
		"REDIS_DB":          "3",
	})

	require.Equal(t, ":9000", cfg.GetPort())
	require.Equal(t, "https://auth.example.com", cfg.GetBaseURL())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, cfg.GetAllowedOrigins().IsAllowedOrigin("*"))
	require.Equal(t, 2*time.Minute, cfg.GetAuthCodeTimeout())
	require.True(t, cfg.GetEnableRateLimiting())
	require.Equal(t, 30, cfg.GetRegistrationRatePerMinute())
	require.Equal(t, 3, cfg.GetRedisDB())
}

func TestFlowTTLsAreCapped(t *testing.T) {
	cfg := config.NewFromValues(map[string]string{
		"PENDING_TTL": "1h",
		"CODE_TTL":    "30m",
	})
	require.Equal(t, config.MaxFlowTTL, cfg.GetPendingAuthorizationTTL())
	require.Equal(t, config.MaxFlowTTL, cfg.GetAuthCodeTimeout())
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg := config.NewFromValues(map[string]string{"CODE_TTL": "soon"})
	require.Equal(t, 5*time.Minute, cfg.GetAuthCodeTimeout())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME: From File\nSTORE_TYPE: redis\nREDIS_ADDR: localhost:6379\n"), 0o600))
	t.Setenv("STORE_TYPE", "memory")

	cfg, err := config.NewFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "From File", cfg.GetAppName())
	require.Equal(t, "memory", cfg.GetStoreType())
	require.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestNewFromFileErrors(t *testing.T) {
	_, err := config.NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))
	_, err = config.NewFromFile(path)
	require.Error(t, err)
}
