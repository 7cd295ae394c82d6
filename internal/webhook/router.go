// Package webhook classifies SES/SNS push notifications and turns bounces and
// complaints into do-not-contact records.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/sesrelay/internal/mail"
)

// maxEnvelopeDepth is how many Notification wrappers are unwrapped. SNS nests
// an SES event at most once.
const maxEnvelopeDepth = 1

const maxBodyBytes = 1 << 20

// Acknowledgement messages.
const (
	MsgPayloadInvalid      = "payload.invalid"
	MsgTypeMissing         = "type.missing"
	MsgTypeUnknown         = "type.unknown"
	MsgNotificationInvalid = "notification.invalid"
	MsgSubscribeConfirmed  = "subscribe.confirmed"
	MsgSubscribeError      = "subscribe.error"
	MsgDeliveryProcessed   = "delivery.processed"
	MsgComplaintProcessed  = "complaint.processed"
	MsgComplaintInvalid    = "complaint.invalid"
	MsgBounceProcessed     = "bounce.processed"
	MsgBounceIgnored       = "bounce.ignored"
	MsgBounceInvalid       = "bounce.invalid"
	MsgSuppressionError    = "suppression.error"
)

// Response is the acknowledgement written for every inbound payload.
type Response struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func handled(msg string) Response  { return Response{Status: http.StatusOK, Message: msg, Success: true} }
func declined(msg string) Response { return Response{Status: http.StatusOK, Message: msg, Success: false} }
func rejected(msg string) Response { return Response{Status: http.StatusBadRequest, Message: msg, Success: false} }

// SubscriptionConfirmer completes a subscription handshake for a SubscribeURL.
type SubscriptionConfirmer interface {
	Confirm(ctx context.Context, rawURL string) error
}

// RouterConfig holds the Router dependencies.
type RouterConfig struct {
	Confirmer  SubscriptionConfirmer
	Suppressor Suppressor
	// SuppressTransientBounces records Transient and Undetermined bounces as
	// soft bounces. When false they are acknowledged and dropped.
	SuppressTransientBounces bool
	Logger                   *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
}

// Router is the inbound webhook state machine. It is safe for concurrent use.
type Router struct {
	confirmer         SubscriptionConfirmer
	mutator           *Mutator
	suppressTransient bool
	logger            *slog.Logger
	metrics           *Metrics
	tracer            trace.Tracer
}

// NewRouter creates a Router.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Router{
		confirmer:         cfg.Confirmer,
		mutator:           NewMutator(cfg.Suppressor, cfg.Logger),
		suppressTransient: cfg.SuppressTransientBounces,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		tracer:            otel.Tracer("github.com/shaharia-lab/sesrelay/internal/webhook"),
	}
}

// ServeHTTP reads one payload and writes its acknowledgement as JSON.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err != nil {
		r.logger.Warn("reading webhook body", "error", err)
		writeResponse(w, rejected(MsgPayloadInvalid))
		return
	}
	writeResponse(w, r.Route(req.Context(), body))
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Route classifies body and acts on it. It never panics on malformed input;
// every outcome is reported through the returned Response.
func (r *Router) Route(ctx context.Context, body []byte) Response {
	ctx, span := r.tracer.Start(ctx, "webhook.route")
	defer span.End()

	env, err := DecodeEnvelope(body)
	if err != nil {
		resp := rejected(MsgPayloadInvalid)
		if errors.Is(err, ErrInvalidPayloadType) {
			resp = rejected(MsgTypeMissing)
		}
		r.logger.Warn("rejecting webhook payload", "error", err)
		r.metrics.observeEvent(KindUnknown.String(), resp.Message)
		span.SetAttributes(attribute.String("webhook.message", resp.Message))
		return resp
	}

	resp, kind := r.dispatch(ctx, env, 0)
	r.metrics.observeEvent(kind.String(), resp.Message)
	span.SetAttributes(
		attribute.String("webhook.kind", kind.String()),
		attribute.String("webhook.message", resp.Message),
	)
	return resp
}

func (r *Router) dispatch(ctx context.Context, env *Envelope, depth int) (Response, Kind) {
	switch env.Kind {
	case KindSubscriptionConfirmation:
		return r.confirm(ctx, env), env.Kind
	case KindNotification:
		if depth >= maxEnvelopeDepth {
			r.logger.Warn("notification nested too deeply", "depth", depth+1)
			return rejected(MsgNotificationInvalid), env.Kind
		}
		nested, err := env.Nested()
		if err != nil {
			r.logger.Warn("invalid notification payload", "error", err)
			return rejected(MsgNotificationInvalid), env.Kind
		}
		return r.dispatch(ctx, nested, depth+1)
	case KindDelivery:
		return handled(MsgDeliveryProcessed), env.Kind
	case KindComplaint:
		return r.complaint(ctx, env), env.Kind
	case KindBounce:
		return r.bounce(ctx, env), env.Kind
	case KindUnknown:
	}
	r.logger.Warn("received webhook of unhandled type", "type", env.Type, "error", ErrUnknownEventType)
	return declined(MsgTypeUnknown), KindUnknown
}

func (r *Router) confirm(ctx context.Context, env *Envelope) Response {
	if err := r.confirmer.Confirm(ctx, env.String("SubscribeURL")); err != nil {
		return declined(MsgSubscribeError)
	}
	return handled(MsgSubscribeConfirmed)
}

func (r *Router) complaint(ctx context.Context, env *Envelope) Response {
	ev, err := decodeComplaint(env)
	if err != nil {
		r.logger.Warn("invalid complaint payload", "error", err)
		return declined(MsgComplaintInvalid)
	}

	text := ComplaintReason(ev.FeedbackType, ev.SubType)
	emailID := ev.Mail.emailID()
	entries := make([]SuppressionEntry, 0, len(ev.Recipients))
	for _, rcpt := range ev.Recipients {
		addr := mail.Normalize(rcpt.EmailAddress)
		if addr == "" {
			continue
		}
		entries = append(entries, SuppressionEntry{
			Address:      addr,
			Reason:       ReasonUnsubscribed,
			Text:         text,
			FeedbackType: ev.FeedbackType,
			EmailID:      emailID,
		})
	}
	return r.suppress(ctx, entries, MsgComplaintProcessed)
}

func (r *Router) bounce(ctx context.Context, env *Envelope) Response {
	ev, err := decodeBounce(env)
	if err != nil {
		r.logger.Warn("invalid bounce payload", "error", err)
		return declined(MsgBounceInvalid)
	}

	reason := ReasonBounced
	if ev.Type != "Permanent" {
		if !r.suppressTransient {
			r.logger.Info("ignoring non-permanent bounce", "bounce_type", ev.Type, "recipients", len(ev.Recipients))
			return handled(MsgBounceIgnored)
		}
		reason = ReasonSoftBounced
	}

	emailID := ev.Mail.emailID()
	entries := make([]SuppressionEntry, 0, len(ev.Recipients))
	for _, rcpt := range ev.Recipients {
		addr := mail.Normalize(rcpt.EmailAddress)
		if addr == "" {
			continue
		}
		entries = append(entries, SuppressionEntry{
			Address: addr,
			Reason:  reason,
			Text:    BounceReason(rcpt.DiagnosticCode, ev.Type, ev.SubType),
			EmailID: emailID,
		})
	}
	return r.suppress(ctx, entries, MsgBounceProcessed)
}

// suppress applies every entry. A store failure is reported as a 500 so the
// provider redelivers; re-applying an entry is idempotent.
func (r *Router) suppress(ctx context.Context, entries []SuppressionEntry, okMsg string) Response {
	var failed int
	for _, e := range entries {
		if err := r.mutator.Apply(ctx, e); err != nil {
			failed++
			r.logger.Error("recording suppression", "address", e.Address, "error", err)
			continue
		}
		r.metrics.observeSuppression(e.Reason)
	}
	if failed > 0 {
		return Response{Status: http.StatusInternalServerError, Message: MsgSuppressionError, Success: false}
	}
	return handled(okMsg)
}
