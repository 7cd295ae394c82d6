package storage

import (
	"context"
	"time"
)

// Suppression is one do-not-contact record joined with its contact address.
type Suppression struct {
	ID        int64     `json:"id"`
	ContactID int64     `json:"contact_id"`
	Email     string    `json:"email"`
	Channel   string    `json:"channel"`
	Reason    string    `json:"reason"`
	Comments  string    `json:"comments"`
	EmailID   string    `json:"email_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SuppressionStore persists do-not-contact records. A contact has at most one
// record per channel; adding a second one is a no-op.
type SuppressionStore interface {
	// AddByEmail adds a record for every contact with the given address and
	// returns how many records were created.
	AddByEmail(ctx context.Context, email string, s Suppression) (int, error)
	// SuppressedEmails returns the subset of emails, lower-cased, that have a
	// record on channel.
	SuppressedEmails(ctx context.Context, channel string, emails []string) (map[string]bool, error)
	ListSuppressions(ctx context.Context, limit int) ([]Suppression, error)
	// RemoveSuppression deletes the record for a contact on channel and
	// reports whether one existed.
	RemoveSuppression(ctx context.Context, contactID int64, channel string) (bool, error)
}
