package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/sesrelay/internal/api"
	"github.com/shaharia-lab/sesrelay/internal/build"
	"github.com/shaharia-lab/sesrelay/internal/config"
	"github.com/shaharia-lab/sesrelay/internal/notification"
	"github.com/shaharia-lab/sesrelay/internal/scheduler"
	"github.com/shaharia-lab/sesrelay/internal/server"
	"github.com/shaharia-lab/sesrelay/internal/telemetry"
	"github.com/shaharia-lab/sesrelay/internal/webhook"
)

// NewServeCmd returns the "serve" subcommand that starts the HTTP server.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API and SES webhook server",
		Long: `Start the HTTP server exposing the send API, the SES/SNS webhook at
/webhooks/ses, Prometheus metrics and a health check.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(cmd.OutOrStdout(), build.Version, fmt.Sprintf("http://localhost:%d", cfg.Port), logFile)

			if err := runServe(cmd.Context(), cfg); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render("An error occurred. Please check the logs at: "+logFile))
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(parent context.Context, cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	a.logger.Info("sesrelay starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("region", cfg.AWSRegion),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		Version:     build.Version,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			a.logger.Warn("flushing traces", "error", err)
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.AlertsEnabled() {
		alerts := notification.NewAlertHandler(notification.NewSMTPProvider(notification.SMTPConfig{
			Host:       cfg.AlertSMTPHost,
			Port:       cfg.AlertSMTPPort,
			Username:   cfg.AlertSMTPUsername,
			Password:   cfg.AlertSMTPPassword,
			FromAddr:   cfg.AlertFrom,
			ToAddrs:    cfg.AlertTo,
			Encryption: cfg.AlertSMTPEncryption,
		}), a.alerts, a.logger)
		a.bus.Subscribe(alerts.Handle)
		a.logger.Info("operator alerts enabled", "to", cfg.AlertTo)
	}

	sched, err := scheduler.New(scheduler.Config{
		Quota:         a.quota,
		Sends:         a.sends,
		QuotaInterval: cfg.QuotaRefreshInterval,
		Retention:     cfg.SendLogRetention,
		Logger:        a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			a.logger.Warn("stopping scheduler", "error", err)
		}
	}()

	hook := webhook.NewRouter(webhook.RouterConfig{
		Confirmer:                webhook.NewConfirmer(cfg.SNSConfirmTimeout, a.logger),
		Suppressor:               a.suppressions,
		SuppressTransientBounces: cfg.SuppressTransientBounces,
		Logger:                   a.logger,
		Metrics:                  webhook.NewMetrics(a.registry),
	})

	apiSrv := api.New(a.sends, a.suppressions, a.contacts, a.quota, a.logger)
	srv := server.New(apiSrv, server.Options{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		Webhook:     hook,
		Gatherer:    a.registry,
	}, a.logger)

	return srv.Run(ctx)
}
