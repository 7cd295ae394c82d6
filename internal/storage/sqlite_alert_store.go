package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteAlertStore implements AlertStore backed by SQLite.
type SQLiteAlertStore struct {
	db *sql.DB
}

// NewSQLiteAlertStore returns a new SQLiteAlertStore.
func NewSQLiteAlertStore(db *sql.DB) *SQLiteAlertStore {
	return &SQLiteAlertStore{db: db}
}

// LogAlert inserts an alert delivery record.
func (s *SQLiteAlertStore) LogAlert(ctx context.Context, entry AlertLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_log (event_type, recipient, subject, status, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.EventType, entry.Recipient, entry.Subject,
		entry.Status, entry.ErrorMsg, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting alert log: %w", err)
	}
	return nil
}

// ListAlerts returns the most recent log entries, newest first.
func (s *SQLiteAlertStore) ListAlerts(ctx context.Context, limit int) ([]AlertLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, recipient, subject, status, error_msg, created_at
		FROM alert_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying alert log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]AlertLogEntry, 0)
	for rows.Next() {
		var e AlertLogEntry
		if err := rows.Scan(&e.ID, &e.EventType, &e.Recipient, &e.Subject,
			&e.Status, &e.ErrorMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alert log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alert log rows: %w", err)
	}
	return entries, nil
}
