package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// inChunk bounds the number of bound parameters in one IN clause.
const inChunk = 500

// SQLiteSuppressionStore implements SuppressionStore backed by SQLite.
type SQLiteSuppressionStore struct {
	db *sql.DB
}

// NewSQLiteSuppressionStore returns a new SQLiteSuppressionStore.
func NewSQLiteSuppressionStore(db *sql.DB) *SQLiteSuppressionStore {
	return &SQLiteSuppressionStore{db: db}
}

// AddByEmail inserts one record per contact matching email. Contacts that
// already have a record on the channel are left untouched.
func (s *SQLiteSuppressionStore) AddByEmail(ctx context.Context, email string, sup Suppression) (int, error) {
	if sup.CreatedAt.IsZero() {
		sup.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO do_not_contact (contact_id, channel, reason, comments, email_id, created_at)
		SELECT id, ?, ?, ?, ?, ? FROM contacts WHERE email = ?`,
		sup.Channel, sup.Reason, sup.Comments, sup.EmailID, sup.CreatedAt.UTC(), strings.TrimSpace(email),
	)
	if err != nil {
		return 0, fmt.Errorf("adding do-not-contact for %q: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return int(n), nil
}

// SuppressedEmails returns which of emails are suppressed on channel, keyed
// by lower-cased address.
func (s *SQLiteSuppressionStore) SuppressedEmails(ctx context.Context, channel string, emails []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for start := 0; start < len(emails); start += inChunk {
		chunk := emails[start:min(start+inChunk, len(emails))]
		args := make([]any, 0, len(chunk)+1)
		args = append(args, channel)
		for _, e := range chunk {
			args = append(args, e)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := s.db.QueryContext(ctx, `
			SELECT c.email
			FROM contacts c
			JOIN do_not_contact d ON d.contact_id = c.id
			WHERE d.channel = ? AND c.email IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying suppressed emails: %w", err)
		}
		for rows.Next() {
			var email string
			if err := rows.Scan(&email); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scanning suppressed email: %w", err)
			}
			out[strings.ToLower(email)] = true
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating suppressed emails: %w", err)
		}
	}
	return out, nil
}

// ListSuppressions returns the most recent records first, up to limit.
func (s *SQLiteSuppressionStore) ListSuppressions(ctx context.Context, limit int) ([]Suppression, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.contact_id, c.email, d.channel, d.reason, d.comments, d.email_id, d.created_at
		FROM do_not_contact d
		JOIN contacts c ON c.id = d.contact_id
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing suppressions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	list := make([]Suppression, 0)
	for rows.Next() {
		var sup Suppression
		if err := rows.Scan(&sup.ID, &sup.ContactID, &sup.Email, &sup.Channel,
			&sup.Reason, &sup.Comments, &sup.EmailID, &sup.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning suppression row: %w", err)
		}
		list = append(list, sup)
	}
	return list, rows.Err()
}

// RemoveSuppression deletes the record for contactID on channel.
func (s *SQLiteSuppressionStore) RemoveSuppression(ctx context.Context, contactID int64, channel string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM do_not_contact WHERE contact_id = ? AND channel = ?", contactID, channel)
	if err != nil {
		return false, fmt.Errorf("removing do-not-contact for contact %d: %w", contactID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}
