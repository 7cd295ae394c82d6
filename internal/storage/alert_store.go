package storage

import (
	"context"
	"time"
)

// AlertLogEntry records a single operator alert delivery attempt.
type AlertLogEntry struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	ErrorMsg  string    `json:"error_msg"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertStore defines the interface for persisting alert delivery logs.
type AlertStore interface {
	LogAlert(ctx context.Context, entry AlertLogEntry) error
	// ListAlerts returns the most recent entries, up to limit.
	ListAlerts(ctx context.Context, limit int) ([]AlertLogEntry, error)
}
