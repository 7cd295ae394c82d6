package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteSendLogStore implements SendLogStore backed by SQLite.
type SQLiteSendLogStore struct {
	db *sql.DB
}

// NewSQLiteSendLogStore returns a new SQLiteSendLogStore.
func NewSQLiteSendLogStore(db *sql.DB) *SQLiteSendLogStore {
	return &SQLiteSendLogStore{db: db}
}

// LogSend inserts a send summary.
func (s *SQLiteSendLogStore) LogSend(ctx context.Context, e SendLogEntry) error {
	if e.FailedAddresses == nil {
		e.FailedAddresses = []string{}
	}
	failedJSON, err := json.Marshal(e.FailedAddresses)
	if err != nil {
		return fmt.Errorf("marshaling failed addresses: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO send_log (id, subject, status, recipients, delivered, suppressed,
		                      failed, failed_addresses, rate, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Subject, e.Status, e.Recipients, e.Delivered, e.Suppressed,
		e.Failed, string(failedJSON), e.Rate, e.ErrorMsg, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting send log %q: %w", e.ID, err)
	}
	return nil
}

const sendLogColumns = `id, subject, status, recipients, delivered, suppressed,
	failed, failed_addresses, rate, error_msg, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSendLog(row rowScanner) (SendLogEntry, error) {
	var (
		e          SendLogEntry
		failedJSON string
	)
	if err := row.Scan(&e.ID, &e.Subject, &e.Status, &e.Recipients, &e.Delivered, &e.Suppressed,
		&e.Failed, &failedJSON, &e.Rate, &e.ErrorMsg, &e.CreatedAt); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(failedJSON), &e.FailedAddresses); err != nil {
		return e, fmt.Errorf("parsing failed addresses for send %q: %w", e.ID, err)
	}
	return e, nil
}

// GetSend returns the send with the given id, or nil if not found.
func (s *SQLiteSendLogStore) GetSend(ctx context.Context, id string) (*SendLogEntry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sendLogColumns+" FROM send_log WHERE id = ?", id)
	e, err := scanSendLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting send %q: %w", id, err)
	}
	return &e, nil
}

// ListSends returns the most recent entries ordered by created_at descending.
func (s *SQLiteSendLogStore) ListSends(ctx context.Context, limit int) ([]SendLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sendLogColumns+" FROM send_log ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying send log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]SendLogEntry, 0)
	for rows.Next() {
		e, err := scanSendLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning send log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating send log rows: %w", err)
	}
	return entries, nil
}

// PurgeSends deletes entries older than cutoff.
func (s *SQLiteSendLogStore) PurgeSends(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM send_log WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging send log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}
