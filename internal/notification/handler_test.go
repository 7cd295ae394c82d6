package notification_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/shaharia-lab/sesrelay/internal/eventbus"
	"github.com/shaharia-lab/sesrelay/internal/logger"
	"github.com/shaharia-lab/sesrelay/internal/notification"
	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// --- stub store ---

type stubStore struct {
	mu      sync.Mutex
	entries []storage.AlertLogEntry
	err     error
}

func (s *stubStore) LogAlert(_ context.Context, entry storage.AlertLogEntry) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubStore) ListAlerts(_ context.Context, _ int) ([]storage.AlertLogEntry, error) {
	return s.entries, nil
}

// --- stub provider ---

type stubProvider struct {
	sent []notification.Message
	err  error
}

func (p *stubProvider) Name() string         { return "stub" }
func (p *stubProvider) Recipients() []string { return []string{"ops@example.com", "oncall@example.com"} }

func (p *stubProvider) Send(_ context.Context, msg notification.Message) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

// --- tests ---

func TestHandle_SendsAndLogs(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvider{}
	h := notification.NewAlertHandler(provider, store, logger.Discard())

	h.Handle(eventbus.Event{
		Type:    eventbus.EventSuppressionAdded,
		Payload: map[string]string{"reason": "bounced", "address": "jane@example.com", "email_id": ""},
	})

	require.Len(t, provider.sent, 1)
	assert.Equal(t, notification.SubjectPrefix+"Recipient suppressed", provider.sent[0].Subject)
	assert.Equal(t, "address: jane@example.com\nreason: bounced", provider.sent[0].Body)

	require.Len(t, store.entries, 1)
	assert.Equal(t, "sent", store.entries[0].Status)
	assert.Equal(t, "ops@example.com, oncall@example.com", store.entries[0].Recipient)
	assert.Equal(t, eventbus.EventSuppressionAdded, store.entries[0].EventType)
}

func TestHandle_DeliveryFailureIsLogged(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvider{err: errors.New("dial tcp: connection refused")}
	h := notification.NewAlertHandler(provider, store, logger.Discard())

	h.Handle(eventbus.Event{Type: eventbus.EventSendFailed, Payload: map[string]string{"send_id": "s-1"}})

	require.Len(t, store.entries, 1)
	assert.Equal(t, "failed", store.entries[0].Status)
	assert.Contains(t, store.entries[0].ErrorMsg, "connection refused")
}

func TestHandle_RateLimited(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvider{}
	h := notification.NewAlertHandler(provider, store, logger.Discard(),
		notification.WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 2)))

	for range 5 {
		h.Handle(eventbus.Event{Type: eventbus.EventSuppressionAdded})
	}

	assert.Len(t, provider.sent, 2)
	require.Len(t, store.entries, 5)
	dropped := 0
	for _, e := range store.entries {
		if e.Status == "dropped" {
			dropped++
		}
	}
	assert.Equal(t, 3, dropped)
}

func TestHandle_LogStoreError(t *testing.T) {
	store := &stubStore{err: errors.New("db error")}
	provider := &stubProvider{}
	h := notification.NewAlertHandler(provider, store, logger.Discard())

	// Must not panic when the alert log cannot be written.
	h.Handle(eventbus.Event{Type: "custom.event"})

	require.Len(t, provider.sent, 1)
	assert.True(t, strings.HasSuffix(provider.sent[0].Subject, "custom.event"))
}

func TestHandle_SubscribedToBus(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvider{}
	h := notification.NewAlertHandler(provider, store, logger.Discard())

	bus := eventbus.New(1, logger.Discard())
	bus.Subscribe(h.Handle)
	bus.Publish(eventbus.EventQuotaRefreshFailed, map[string]string{"error": "throttled"})
	bus.Close()

	require.Len(t, provider.sent, 1)
	assert.Equal(t, notification.SubjectPrefix+"SES quota refresh failed", provider.sent[0].Subject)
}

func TestSMTPConfig_Recipients(t *testing.T) {
	c := notification.SMTPConfig{ToAddrs: " a@example.com, ,b@example.com "}
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, c.Recipients())
	assert.Empty(t, notification.SMTPConfig{}.Recipients())
}

func TestSMTPProvider_NoRecipients(t *testing.T) {
	p := notification.NewSMTPProvider(notification.SMTPConfig{Host: "localhost", Port: 2525, FromAddr: "alerts@example.com"})

	err := p.Send(context.Background(), notification.Message{Subject: "s", Body: "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no alert recipients")
}
