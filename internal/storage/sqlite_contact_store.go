package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLiteContactStore implements ContactStore backed by SQLite.
type SQLiteContactStore struct {
	db *sql.DB
}

// NewSQLiteContactStore returns a new SQLiteContactStore.
func NewSQLiteContactStore(db *sql.DB) *SQLiteContactStore {
	return &SQLiteContactStore{db: db}
}

// CreateContact inserts c and sets its ID and CreatedAt.
func (s *SQLiteContactStore) CreateContact(ctx context.Context, c *Contact) error {
	c.Email = strings.TrimSpace(c.Email)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (email, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?)`,
		c.Email, c.FirstName, c.LastName, c.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting contact %q: %w", c.Email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading contact id: %w", err)
	}
	c.ID = id
	return nil
}

// GetContact returns the contact with the given id, or nil if not found.
func (s *SQLiteContactStore) GetContact(ctx context.Context, id int64) (*Contact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, created_at
		FROM contacts WHERE id = ?`, id)
	return scanContact(row, fmt.Sprint(id))
}

// GetContactByEmail returns the contact with the given address, or nil if not found.
func (s *SQLiteContactStore) GetContactByEmail(ctx context.Context, email string) (*Contact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, created_at
		FROM contacts WHERE email = ?`, strings.TrimSpace(email))
	return scanContact(row, email)
}

func scanContact(row *sql.Row, key string) (*Contact, error) {
	c := &Contact{}
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting contact %q: %w", key, err)
	}
	return c, nil
}

// ListContacts returns contacts ordered by id, up to limit.
func (s *SQLiteContactStore) ListContacts(ctx context.Context, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, first_name, last_name, created_at
		FROM contacts
		ORDER BY id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	contacts := make([]Contact, 0)
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// DeleteContact removes a contact and, through the foreign key, its
// do-not-contact records.
func (s *SQLiteContactStore) DeleteContact(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting contact %d: %w", id, err)
	}
	return nil
}
