package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestAppConfig_DirectoryPaths(t *testing.T) {
	c := &AppConfig{DataDir: "/data"}

	tests := []struct {
		name string
		fn   func() string
		want string
	}{
		{"LogDir", c.LogDir, "/data/logs"},
		{"DBPath", c.DBPath, "/data/sesrelay.db"},
		{"QuotaCacheDir", c.QuotaCacheDir, "/data/cache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn())
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESRELAY_DATA_DIR", "/tmp/test-sesrelay")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SES_RATE_LIMIT", "")
	t.Setenv("SESRELAY_PROFILES_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test-sesrelay", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/test-sesrelay/profiles.yaml", cfg.ProfilesFile)
	assert.Equal(t, time.Hour, cfg.QuotaCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.SNSConfirmTimeout)
	assert.True(t, cfg.SuppressTransientBounces)
	assert.Zero(t, cfg.RateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESRELAY_DATA_DIR", "/tmp/test")
	t.Setenv("SES_RATE_LIMIT", "25")
	t.Setenv("SES_QUOTA_CACHE_TTL", "10m")
	t.Setenv("SUPPRESS_TRANSIENT_BOUNCES", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.RateLimit)
	assert.Equal(t, 10*time.Minute, cfg.QuotaCacheTTL)
	assert.False(t, cfg.SuppressTransientBounces)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	t.Setenv("SESRELAY_DATA_DIR", "/tmp/test")
	t.Setenv("SES_RATE_LIMIT", "-3")

	_, err := Load()
	assert.Error(t, err)
}

func TestAppConfig_AlertsEnabled(t *testing.T) {
	assert.False(t, (&AppConfig{}).AlertsEnabled())
	assert.False(t, (&AppConfig{AlertSMTPHost: "smtp.example.com"}).AlertsEnabled())
	assert.True(t, (&AppConfig{AlertSMTPHost: "smtp.example.com", AlertTo: "ops@example.com"}).AlertsEnabled())
}
