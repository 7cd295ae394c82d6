package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// MockContactStore is a mock implementation of storage.ContactStore.
type MockContactStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockContactStore) CreateContact(ctx context.Context, c *storage.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

//nolint:revive
func (m *MockContactStore) GetContact(ctx context.Context, id int64) (*storage.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Contact), args.Error(1)
}

//nolint:revive
func (m *MockContactStore) GetContactByEmail(ctx context.Context, email string) (*storage.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Contact), args.Error(1)
}

//nolint:revive
func (m *MockContactStore) ListContacts(ctx context.Context, limit int) ([]storage.Contact, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Contact), args.Error(1)
}

//nolint:revive
func (m *MockContactStore) DeleteContact(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
