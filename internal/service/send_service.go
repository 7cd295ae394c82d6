package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaharia-lab/sesrelay/internal/dispatch"
	"github.com/shaharia-lab/sesrelay/internal/eventbus"
	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/storage"
	"github.com/shaharia-lab/sesrelay/internal/webhook"
)

// Dispatcher delivers one logical send.
type Dispatcher interface {
	Send(ctx context.Context, msg *mail.Message) (dispatch.Result, error)
}

// FailedRecipient is one recipient the provider did not accept.
type FailedRecipient struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// SendReport is the outcome of one send.
type SendReport struct {
	ID         string              `json:"id"`
	Rate       int                 `json:"rate"`
	Delivered  []dispatch.Delivery `json:"delivered"`
	Suppressed []string            `json:"suppressed"`
	Failed     []FailedRecipient   `json:"failed"`
	// Retry is the message narrowed to the failed recipients, ready to be
	// resubmitted. It is nil when nothing failed.
	Retry *mail.Message `json:"retry,omitempty"`
}

// PartialFailure reports whether some recipients were rejected.
func (r *SendReport) PartialFailure() bool { return len(r.Failed) > 0 }

// SendService filters suppressed recipients, dispatches a message and records
// the outcome in the send log.
type SendService interface {
	Send(ctx context.Context, msg *mail.Message) (*SendReport, error)
	Get(ctx context.Context, id string) (*storage.SendLogEntry, error)
	List(ctx context.Context, limit int) ([]storage.SendLogEntry, error)
	// PurgeBefore deletes send log entries created before cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sendService struct {
	dispatcher   Dispatcher
	suppressions storage.SuppressionStore
	log          storage.SendLogStore
	publisher    EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

// NewSendService returns a new SendService.
func NewSendService(
	dispatcher Dispatcher,
	suppressions storage.SuppressionStore,
	log storage.SendLogStore,
	publisher EventPublisher,
	logger *slog.Logger,
) SendService {
	return &sendService{
		dispatcher:   dispatcher,
		suppressions: suppressions,
		log:          log,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *sendService) Send(ctx context.Context, msg *mail.Message) (*SendReport, error) {
	if msg == nil {
		return nil, &ValidationError{Message: "message is required"}
	}
	if err := msg.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	report := &SendReport{
		ID:         uuid.NewString(),
		Delivered:  []dispatch.Delivery{},
		Suppressed: []string{},
		Failed:     []FailedRecipient{},
	}
	entry := storage.SendLogEntry{ID: report.ID, Subject: msg.Subject, Recipients: len(msg.AllAddresses())}

	personalized := len(msg.Recipients) > 0
	suppressed, err := s.suppressions.SuppressedEmails(ctx, webhook.ChannelEmail, msg.AllAddresses())
	if err != nil {
		return nil, fmt.Errorf("checking suppressions: %w", err)
	}
	if removed := msg.RemoveAddresses(suppressed); len(removed) > 0 {
		report.Suppressed = removed
		entry.Suppressed = len(removed)
		s.logger.Info("suppressed recipients skipped", "send_id", report.ID, "count", len(removed))
	}

	if nothingLeft(msg, personalized) {
		entry.Status = storage.SendStatusOK
		s.record(ctx, entry)
		return report, nil
	}

	res, err := s.dispatcher.Send(ctx, msg)
	report.Rate = res.Rate
	report.Delivered = append(report.Delivered, res.Delivered...)
	entry.Rate = res.Rate
	entry.Delivered = len(res.Delivered)

	var pf *dispatch.PartialFailureError
	switch {
	case err == nil:
		entry.Status = storage.SendStatusOK
	case errors.As(err, &pf):
		for _, f := range pf.Failures {
			report.Failed = append(report.Failed, FailedRecipient{Address: f.Address, Reason: f.Reason()})
		}
		report.Retry = msg
		entry.Status = storage.SendStatusPartialFailure
		entry.Failed = pf.Count
		entry.FailedAddresses = pf.Addresses
		entry.ErrorMsg = pf.Error()
		s.publisher.Publish(eventbus.EventSendPartialFailure, map[string]string{
			"send_id":   report.ID,
			"subject":   msg.Subject,
			"failed":    strconv.Itoa(pf.Count),
			"delivered": strconv.Itoa(len(res.Delivered)),
			"addresses": strings.Join(pf.Addresses, ", "),
		})
	default:
		entry.Status = storage.SendStatusFailed
		entry.ErrorMsg = err.Error()
		s.record(ctx, entry)
		s.publisher.Publish(eventbus.EventSendFailed, map[string]string{
			"send_id": report.ID,
			"subject": msg.Subject,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("dispatching send %s: %w", report.ID, err)
	}

	s.record(ctx, entry)
	return report, nil
}

// nothingLeft reports whether suppression removed every destination.
func nothingLeft(msg *mail.Message, personalized bool) bool {
	if personalized {
		return len(msg.Recipients) == 0
	}
	return len(msg.To)+len(msg.Cc)+len(msg.Bcc) == 0
}

// record writes the send log entry. A failure here does not change the
// outcome of a send that already happened.
func (s *sendService) record(ctx context.Context, entry storage.SendLogEntry) {
	entry.CreatedAt = s.now().UTC()
	if err := s.log.LogSend(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("writing send log", "send_id", entry.ID, "error", err)
	}
}

func (s *sendService) Get(ctx context.Context, id string) (*storage.SendLogEntry, error) {
	entry, err := s.log.GetSend(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting send: %w", err)
	}
	if entry == nil {
		return nil, &NotFoundError{Resource: "send", ID: id}
	}
	return entry, nil
}

func (s *sendService) List(ctx context.Context, limit int) ([]storage.SendLogEntry, error) {
	entries, err := s.log.ListSends(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sends: %w", err)
	}
	return entries, nil
}

func (s *sendService) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.log.PurgeSends(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging sends: %w", err)
	}
	if n > 0 {
		s.logger.Info("send log purged", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}
