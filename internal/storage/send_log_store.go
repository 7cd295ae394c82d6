package storage

import (
	"context"
	"time"
)

// Send log statuses.
const (
	SendStatusOK             = "ok"
	SendStatusPartialFailure = "partial_failure"
	SendStatusFailed         = "failed"
)

// SendLogEntry summarises one logical send.
type SendLogEntry struct {
	ID              string    `json:"id"`
	Subject         string    `json:"subject"`
	Status          string    `json:"status"`
	Recipients      int       `json:"recipients"`
	Delivered       int       `json:"delivered"`
	Suppressed      int       `json:"suppressed"`
	Failed          int       `json:"failed"`
	FailedAddresses []string  `json:"failed_addresses"`
	Rate            int       `json:"rate"`
	ErrorMsg        string    `json:"error_msg,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SendLogStore persists send summaries.
type SendLogStore interface {
	LogSend(ctx context.Context, entry SendLogEntry) error
	// GetSend returns nil when no send has the given id.
	GetSend(ctx context.Context, id string) (*SendLogEntry, error)
	// ListSends returns the most recent entries first, up to limit.
	ListSends(ctx context.Context, limit int) ([]SendLogEntry, error)
	// PurgeSends deletes entries created before cutoff and returns how many were removed.
	PurgeSends(ctx context.Context, cutoff time.Time) (int64, error)
}
