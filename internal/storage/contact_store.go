package storage

import (
	"context"
	"time"
)

// Contact is an addressable recipient known to the system.
type Contact struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactStore defines the interface for contact persistence. Email lookups
// are case-insensitive.
type ContactStore interface {
	CreateContact(ctx context.Context, c *Contact) error
	// GetContact returns nil when no contact has the given id.
	GetContact(ctx context.Context, id int64) (*Contact, error)
	// GetContactByEmail returns nil when no contact has the given address.
	GetContactByEmail(ctx context.Context, email string) (*Contact, error)
	ListContacts(ctx context.Context, limit int) ([]Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}
