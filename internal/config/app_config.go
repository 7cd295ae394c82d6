package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.sesrelay.
	DataDir string `envconfig:"SESRELAY_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogMaxSizeMB and LogMaxBackups control rotation of the system log file.
	LogMaxSizeMB  int `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxBackups int `envconfig:"LOG_MAX_BACKUPS" default:"5"`

	// AWSRegion must be one of the regions in ses.SupportedRegions.
	AWSRegion          string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	// SESEndpoint overrides the SES API base endpoint (useful for local emulators).
	SESEndpoint string `envconfig:"SES_ENDPOINT"`

	// RateLimit overrides the discovered account send rate when > 0.
	RateLimit int `envconfig:"SES_RATE_LIMIT"`

	// QuotaCacheTTL is how long a discovered send rate is trusted before asking SES again.
	QuotaCacheTTL time.Duration `envconfig:"SES_QUOTA_CACHE_TTL" default:"1h"`

	// ConfigurationSet is applied to every send that does not carry an
	// X-SES-CONFIGURATION-SET header.
	ConfigurationSet string `envconfig:"SES_CONFIGURATION_SET"`

	// ProfilesFile is the YAML file with per-email sender profiles.
	// Defaults to <DataDir>/profiles.yaml.
	ProfilesFile string `envconfig:"SESRELAY_PROFILES_FILE"`

	// SNSConfirmTimeout bounds the SubscribeURL confirmation request.
	SNSConfirmTimeout time.Duration `envconfig:"SNS_CONFIRM_TIMEOUT" default:"5s"`

	// SuppressTransientBounces adds soft-bounce do-not-contact records for
	// non-permanent bounces.
	SuppressTransientBounces bool `envconfig:"SUPPRESS_TRANSIENT_BOUNCES" default:"true"`

	// SendLogRetention is how long send log rows are kept before the purge job removes them.
	SendLogRetention time.Duration `envconfig:"SEND_LOG_RETENTION" default:"720h"`

	// CORSOrigins lists origins allowed to call the REST API.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// OTLPEndpoint enables trace export over OTLP/gRPC when set (host:port).
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE"`
	// TraceSampleRatio is the fraction of root spans sampled.
	TraceSampleRatio float64 `envconfig:"OTEL_TRACES_SAMPLER_ARG" default:"1"`

	// QuotaRefreshInterval is how often the serve command rediscovers the send rate.
	QuotaRefreshInterval time.Duration `envconfig:"SES_QUOTA_REFRESH_INTERVAL" default:"30m"`

	// Alert* configure operator alert e-mails. Alerts are disabled when AlertSMTPHost is empty.
	AlertSMTPHost       string `envconfig:"ALERT_SMTP_HOST"`
	AlertSMTPPort       int    `envconfig:"ALERT_SMTP_PORT" default:"587"`
	AlertSMTPUsername   string `envconfig:"ALERT_SMTP_USERNAME"`
	AlertSMTPPassword   string `envconfig:"ALERT_SMTP_PASSWORD"`
	AlertSMTPEncryption string `envconfig:"ALERT_SMTP_ENCRYPTION" default:"starttls"`
	AlertFrom           string `envconfig:"ALERT_FROM"`
	AlertTo             string `envconfig:"ALERT_TO"`
}

// Load reads an optional .env file from the working directory and then
// AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.sesrelay if not set.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".sesrelay")
	}
	if c.ProfilesFile == "" {
		c.ProfilesFile = filepath.Join(c.DataDir, "profiles.yaml")
	}
	if c.RateLimit < 0 {
		return nil, fmt.Errorf("SES_RATE_LIMIT must not be negative, got %d", c.RateLimit)
	}

	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.sesrelay/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "sesrelay.db")
}

// QuotaCacheDir returns the directory holding the quota discovery cache.
func (c *AppConfig) QuotaCacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}

// AlertsEnabled reports whether operator alert e-mails are configured.
func (c *AppConfig) AlertsEnabled() bool {
	return c.AlertSMTPHost != "" && c.AlertTo != ""
}
