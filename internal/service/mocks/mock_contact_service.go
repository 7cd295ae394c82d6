package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// MockContactService is a mock implementation of service.ContactService.
type MockContactService struct {
	mock.Mock
}

//nolint:revive
func (m *MockContactService) Create(ctx context.Context, c *storage.Contact) (*storage.Contact, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Contact), args.Error(1)
}

//nolint:revive
func (m *MockContactService) Get(ctx context.Context, id int64) (*storage.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Contact), args.Error(1)
}

//nolint:revive
func (m *MockContactService) List(ctx context.Context, limit int) ([]storage.Contact, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Contact), args.Error(1)
}

//nolint:revive
func (m *MockContactService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
