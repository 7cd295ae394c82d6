package notification

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaharia-lab/sesrelay/internal/eventbus"
	"github.com/shaharia-lab/sesrelay/internal/storage"
)

const (
	statusSent    = "sent"
	statusFailed  = "failed"
	statusDropped = "dropped"

	defaultSendTimeout = 30 * time.Second
)

// AlertHandler turns bus events into operator alert e-mails and records
// every attempt in the alert log. Alerts beyond the limiter's budget are
// logged as dropped so a bounce storm cannot flood the operators' inbox.
type AlertHandler struct {
	provider Provider
	store    storage.AlertStore
	limiter  *rate.Limiter
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// HandlerOption customises an AlertHandler.
type HandlerOption func(*AlertHandler)

// WithLimiter replaces the default budget of 10 alerts then one every 6 seconds.
func WithLimiter(l *rate.Limiter) HandlerOption {
	return func(h *AlertHandler) { h.limiter = l }
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(provider Provider, store storage.AlertStore, logger *slog.Logger, opts ...HandlerOption) *AlertHandler {
	h := &AlertHandler{
		provider: provider,
		store:    store,
		limiter:  rate.NewLimiter(rate.Every(6*time.Second), 10),
		logger:   logger,
		timeout:  defaultSendTimeout,
		now:      time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// humanSubject returns a readable subject for a given event type. Unknown
// types fall back to the raw event type string.
func humanSubject(eventType string) string {
	switch eventType {
	case eventbus.EventSuppressionAdded:
		return "Recipient suppressed"
	case eventbus.EventSendPartialFailure:
		return "Send partially failed"
	case eventbus.EventSendFailed:
		return "Send failed"
	case eventbus.EventQuotaRefreshFailed:
		return "SES quota refresh failed"
	}
	return eventType
}

// alertBody renders the payload as "key: value" lines in sorted key order.
func alertBody(payload map[string]string) string {
	lines := make([]string, 0, len(payload))
	for _, k := range slices.Sorted(maps.Keys(payload)) {
		if v := payload[k]; v != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

// Handle is an eventbus.Listener.
func (h *AlertHandler) Handle(ev eventbus.Event) {
	subject := buildSubject(humanSubject(ev.Type))
	entry := storage.AlertLogEntry{
		EventType: ev.Type,
		Recipient: strings.Join(h.provider.Recipients(), ", "),
		Subject:   subject,
		Status:    statusSent,
		CreatedAt: h.now().UTC(),
	}

	if !h.limiter.Allow() {
		entry.Status = statusDropped
		h.logger.Warn("alert dropped by rate limit", "event_type", ev.Type)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		err := h.provider.Send(ctx, Message{Subject: subject, Body: alertBody(ev.Payload)})
		cancel()
		if err != nil {
			entry.Status = statusFailed
			entry.ErrorMsg = err.Error()
			h.logger.Error("alert delivery failed", "event_type", ev.Type, "provider", h.provider.Name(), "error", err)
		}
	}

	if err := h.store.LogAlert(context.Background(), entry); err != nil {
		h.logger.Error("logging alert delivery", "event_type", ev.Type, "error", err)
	}
}
