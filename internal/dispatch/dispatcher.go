// Package dispatch fans one logical send out into per-recipient SES calls.
//
// A send flows Renderer -> HeaderTranslator -> Pacer-paced Pool -> Collate.
// The Dispatcher runs at most one send at a time per process.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/shaharia-lab/sesrelay/internal/mail"
)

// RateSource supplies the effective send rate for the next send.
type RateSource interface {
	EffectiveRate(ctx context.Context) (int, string)
}

// Config holds the Dispatcher dependencies.
type Config struct {
	Sender     Sender
	Rates      RateSource
	Translator *HeaderTranslator
	Clock      clockwork.Clock
	Logger     *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
	// SendsPerSecond limits how often a logical send may start. Defaults to 1.
	SendsPerSecond float64
}

// Dispatcher serializes logical sends for the process.
type Dispatcher struct {
	mu       sync.Mutex
	gate     *rate.Limiter
	rates    RateSource
	renderer *Renderer
	pacer    *Pacer
	pool     *Pool
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SendsPerSecond <= 0 {
		cfg.SendsPerSecond = 1
	}
	pacer := NewPacer(1, cfg.Clock)
	return &Dispatcher{
		gate:     rate.NewLimiter(rate.Limit(cfg.SendsPerSecond), 1),
		rates:    cfg.Rates,
		renderer: NewRenderer(cfg.Translator),
		pacer:    pacer,
		pool:     NewPool(cfg.Sender, pacer, cfg.Logger, cfg.Metrics),
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer("github.com/shaharia-lab/sesrelay/internal/dispatch"),
	}
}

// Send delivers msg and blocks until every provider call has completed.
// When some recipients fail, msg is narrowed to those recipients and the
// returned error is a *PartialFailureError; the Result is returned either way.
func (d *Dispatcher) Send(ctx context.Context, msg *mail.Message) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.gate.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("waiting for send slot: %w", err)
	}

	effective, source := d.rates.EffectiveRate(ctx)
	effective = max(1, effective)
	d.pacer.SetRate(effective)

	ctx, span := d.tracer.Start(ctx, "dispatch.send", trace.WithAttributes(
		attribute.Int("sesrelay.rate", effective),
		attribute.String("sesrelay.rate_source", source),
		attribute.Int("sesrelay.recipients", len(msg.Recipients)),
	))
	defer span.End()

	start := d.clock.Now()
	res := d.pool.Run(ctx, d.renderer.Stream(msg), effective)
	res.Rate = effective

	pf := Collate(msg, res)
	elapsed := d.clock.Since(start)
	if pf != nil {
		span.SetStatus(codes.Error, pf.Error())
		span.SetAttributes(attribute.Int("sesrelay.failed", pf.Count))
		d.metrics.observeSend("partial_failure", effective, elapsed)
		d.logger.Warn("send finished with failures",
			"rate", effective, "rate_source", source,
			"delivered", len(res.Delivered), "failed", pf.Count, "duration", elapsed)
		return res, pf
	}

	d.metrics.observeSend("ok", effective, elapsed)
	d.logger.Info("send finished",
		"rate", effective, "rate_source", source,
		"delivered", len(res.Delivered), "duration", elapsed)
	return res, nil
}

// Interval returns the pacing interval currently in force.
func (d *Dispatcher) Interval() time.Duration {
	return d.pacer.Interval()
}
