package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// ContactService manages contacts, the owners of do-not-contact records.
type ContactService interface {
	Create(ctx context.Context, c *storage.Contact) (*storage.Contact, error)
	Get(ctx context.Context, id int64) (*storage.Contact, error)
	List(ctx context.Context, limit int) ([]storage.Contact, error)
	Delete(ctx context.Context, id int64) error
}

type contactService struct {
	store  storage.ContactStore
	logger *slog.Logger
}

// NewContactService returns a new ContactService.
func NewContactService(store storage.ContactStore, logger *slog.Logger) ContactService {
	return &contactService{store: store, logger: logger}
}

func (s *contactService) Create(ctx context.Context, c *storage.Contact) (*storage.Contact, error) {
	if c == nil || c.Email == "" {
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil {
		return nil, &ValidationError{Field: "email", Message: fmt.Sprintf("invalid email %q", c.Email)}
	}
	c.Email = addr.Address

	existing, err := s.store.GetContactByEmail(ctx, c.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{Resource: "contact", ID: c.Email}
	}

	if err := s.store.CreateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("saving contact: %w", err)
	}
	s.logger.Info("contact created", "id", c.ID, "email", c.Email)
	return c, nil
}

func (s *contactService) Get(ctx context.Context, id int64) (*storage.Contact, error) {
	c, err := s.store.GetContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting contact: %w", err)
	}
	if c == nil {
		return nil, &NotFoundError{Resource: "contact", ID: strconv.FormatInt(id, 10)}
	}
	return c, nil
}

func (s *contactService) List(ctx context.Context, limit int) ([]storage.Contact, error) {
	list, err := s.store.ListContacts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return list, nil
}

func (s *contactService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	s.logger.Info("contact deleted", "id", id)
	return nil
}
