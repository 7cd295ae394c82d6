package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shaharia-lab/sesrelay/internal/eventbus"
	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/storage"
	"github.com/shaharia-lab/sesrelay/internal/webhook"
)

// SuppressionService manages do-not-contact records. It is the webhook
// router's Suppressor.
type SuppressionService interface {
	// Suppress adds a record for every contact owning entry.Address. Unknown
	// addresses and already-suppressed contacts add nothing.
	Suppress(ctx context.Context, channel string, entry webhook.SuppressionEntry) (int, error)
	List(ctx context.Context, limit int) ([]storage.Suppression, error)
	// Remove lifts the suppression of email on channel.
	Remove(ctx context.Context, email, channel string) error
}

type suppressionService struct {
	contacts     storage.ContactStore
	suppressions storage.SuppressionStore
	publisher    EventPublisher
	logger       *slog.Logger
}

// NewSuppressionService returns a new SuppressionService.
func NewSuppressionService(
	contacts storage.ContactStore,
	suppressions storage.SuppressionStore,
	publisher EventPublisher,
	logger *slog.Logger,
) SuppressionService {
	return &suppressionService{
		contacts:     contacts,
		suppressions: suppressions,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *suppressionService) Suppress(ctx context.Context, channel string, entry webhook.SuppressionEntry) (int, error) {
	addr := mail.Normalize(entry.Address)
	if addr == "" {
		return 0, &ValidationError{Field: "address", Message: "address is required"}
	}
	n, err := s.suppressions.AddByEmail(ctx, addr, storage.Suppression{
		Channel:  channel,
		Reason:   string(entry.Reason),
		Comments: entry.Text,
		EmailID:  entry.EmailID,
	})
	if err != nil {
		return 0, fmt.Errorf("adding suppression: %w", err)
	}
	if n > 0 {
		s.publisher.Publish(eventbus.EventSuppressionAdded, map[string]string{
			"address":  addr,
			"channel":  channel,
			"reason":   string(entry.Reason),
			"text":     entry.Text,
			"email_id": entry.EmailID,
			"records":  strconv.Itoa(n),
		})
	}
	return n, nil
}

func (s *suppressionService) List(ctx context.Context, limit int) ([]storage.Suppression, error) {
	list, err := s.suppressions.ListSuppressions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing suppressions: %w", err)
	}
	return list, nil
}

func (s *suppressionService) Remove(ctx context.Context, email, channel string) error {
	if channel == "" {
		channel = webhook.ChannelEmail
	}
	c, err := s.contacts.GetContactByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("looking up contact: %w", err)
	}
	if c == nil {
		return &NotFoundError{Resource: "contact", ID: email}
	}
	removed, err := s.suppressions.RemoveSuppression(ctx, c.ID, channel)
	if err != nil {
		return fmt.Errorf("removing suppression: %w", err)
	}
	if !removed {
		return &NotFoundError{Resource: "suppression", ID: email}
	}
	s.logger.Info("suppression removed", "address", c.Email, "channel", channel)
	return nil
}
