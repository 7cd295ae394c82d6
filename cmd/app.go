package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaharia-lab/sesrelay/internal/config"
	"github.com/shaharia-lab/sesrelay/internal/dispatch"
	"github.com/shaharia-lab/sesrelay/internal/eventbus"
	"github.com/shaharia-lab/sesrelay/internal/logger"
	"github.com/shaharia-lab/sesrelay/internal/profile"
	"github.com/shaharia-lab/sesrelay/internal/quota"
	"github.com/shaharia-lab/sesrelay/internal/service"
	"github.com/shaharia-lab/sesrelay/internal/ses"
	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.AppConfig
	logger   *slog.Logger
	db       *sql.DB
	bus      eventbus.EventBus
	registry *prometheus.Registry

	alerts       storage.AlertStore
	sends        service.SendService
	suppressions service.SuppressionService
	contacts     service.ContactService
	quota        service.QuotaService

	closers []io.Closer
}

// newApp opens storage and builds the services. The system logger writes
// to the rotated log file under the data directory.
func newApp(cfg *config.AppConfig) (*app, error) {
	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), logger.RotationConfig{
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	a := &app{cfg: cfg, logger: sysLogger, closers: []io.Closer{logCloser}}

	if err := a.wire(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db)
	if fresh {
		a.logger.Info("database created", "path", cfg.DBPath())
	}

	client, err := ses.New(ses.Options{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Endpoint:        cfg.SESEndpoint,
	})
	if err != nil {
		return fmt.Errorf("configuring SES client: %w", err)
	}

	profiles, err := profile.Load(cfg.ProfilesFile)
	if err != nil {
		return fmt.Errorf("loading sender profiles: %w", err)
	}
	a.logger.Info("sender profiles loaded", "count", profiles.Len(), "file", cfg.ProfilesFile)

	rates := ses.NewRateResolver(client, ses.RateOptions{
		Override: cfg.RateLimit,
		Cache:    quota.NewFileCache(cfg.QuotaCacheDir()),
		TTL:      cfg.QuotaCacheTTL,
		CacheKey: "ses-max-send-rate-" + cfg.AWSRegion,
		Logger:   a.logger,
	})

	a.registry = prometheus.NewRegistry()
	a.bus = eventbus.New(0, a.logger)

	dispatcher := dispatch.New(dispatch.Config{
		Sender:     client,
		Rates:      rates,
		Translator: dispatch.NewHeaderTranslator(profiles, cfg.ConfigurationSet),
		Logger:     a.logger,
		Metrics:    dispatch.NewMetrics(a.registry),
	})

	contactStore := storage.NewSQLiteContactStore(db)
	suppressionStore := storage.NewSQLiteSuppressionStore(db)
	a.alerts = storage.NewSQLiteAlertStore(db)

	a.sends = service.NewSendService(dispatcher, suppressionStore, storage.NewSQLiteSendLogStore(db), a.bus, a.logger)
	a.suppressions = service.NewSuppressionService(contactStore, suppressionStore, a.bus, a.logger)
	a.contacts = service.NewContactService(contactStore, a.logger)
	a.quota = service.NewQuotaService(cfg.AWSRegion, client, rates, a.bus, a.logger)
	return nil
}

// Close drains the event bus and releases storage and the log file.
func (a *app) Close() error {
	if a.bus != nil {
		a.bus.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
