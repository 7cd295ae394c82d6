package webhook

import (
	"context"
	"fmt"
	"log/slog"
)

// ReasonCode classifies why an address is suppressed.
type ReasonCode string

const (
	ReasonUnsubscribed ReasonCode = "unsubscribed"
	ReasonBounced      ReasonCode = "bounced"
	ReasonSoftBounced  ReasonCode = "soft_bounced"
)

// ChannelEmail is the do-not-contact channel written for every entry.
const ChannelEmail = "email"

// SuppressionEntry is one recipient to exclude from future sends.
type SuppressionEntry struct {
	Address string     `json:"address"`
	Reason  ReasonCode `json:"reason"`
	// Text is the human readable reason stored with the record.
	Text         string `json:"text"`
	FeedbackType string `json:"feedback_type,omitempty"`
	EmailID      string `json:"email_id,omitempty"`
}

// Suppressor adds do-not-contact records. Implementations look up the
// contacts owning entry.Address and return the number of records added; no
// matching contact is not an error.
type Suppressor interface {
	Suppress(ctx context.Context, channel string, entry SuppressionEntry) (int, error)
}

// Mutator feeds suppression entries back into the contact store.
type Mutator struct {
	suppressor Suppressor
	logger     *slog.Logger
}

// NewMutator returns a Mutator writing through suppressor.
func NewMutator(suppressor Suppressor, logger *slog.Logger) *Mutator {
	return &Mutator{suppressor: suppressor, logger: logger}
}

// Apply records entry on the email channel.
func (m *Mutator) Apply(ctx context.Context, entry SuppressionEntry) error {
	n, err := m.suppressor.Suppress(ctx, ChannelEmail, entry)
	if err != nil {
		return fmt.Errorf("suppressing %s: %w", entry.Address, err)
	}
	if n == 0 {
		m.logger.Debug("no contact for suppressed address", "address", entry.Address, "reason", entry.Reason)
		return nil
	}
	m.logger.Info("address suppressed",
		"address", entry.Address, "reason", entry.Reason, "text", entry.Text, "email_id", entry.EmailID, "records", n)
	return nil
}

var complaintReasons = map[string]string{
	"abuse":        "Unsolicited email or some other kind of email abuse.",
	"auth-failure": "Email authentication failure report.",
	"fraud":        "Some kind of fraud or phishing activity.",
	"not-spam":     "The recipient considers the email not to be spam.",
	"other":        "Feedback that does not fit into other registered types.",
	"virus":        "A virus was found in the originating message.",
}

const unknownComplaintReason = "Unknown complaint reason."

// ComplaintReason returns the reason text for a complaint. The feedback type
// takes precedence; without one the sub-type is used verbatim.
func ComplaintReason(feedbackType, subType string) string {
	if feedbackType != "" {
		if r, ok := complaintReasons[feedbackType]; ok {
			return r
		}
		return unknownComplaintReason
	}
	if subType != "" {
		return subType
	}
	return unknownComplaintReason
}

// BounceReason composes the stored reason text for one bounced recipient.
func BounceReason(diagnosticCode, bounceType, bounceSubType string) string {
	if diagnosticCode == "" {
		diagnosticCode = "unknown"
	}
	return fmt.Sprintf("%s AWS bounce type: %s bounce subtype:%s", diagnosticCode, bounceType, bounceSubType)
}
