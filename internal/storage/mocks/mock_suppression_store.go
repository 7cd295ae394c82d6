package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// MockSuppressionStore is a mock implementation of storage.SuppressionStore.
type MockSuppressionStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockSuppressionStore) AddByEmail(ctx context.Context, email string, s storage.Suppression) (int, error) {
	args := m.Called(ctx, email, s)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockSuppressionStore) SuppressedEmails(ctx context.Context, channel string, emails []string) (map[string]bool, error) {
	args := m.Called(ctx, channel, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

//nolint:revive
func (m *MockSuppressionStore) ListSuppressions(ctx context.Context, limit int) ([]storage.Suppression, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Suppression), args.Error(1)
}

//nolint:revive
func (m *MockSuppressionStore) RemoveSuppression(ctx context.Context, contactID int64, channel string) (bool, error) {
	args := m.Called(ctx, contactID, channel)
	return args.Bool(0), args.Error(1)
}
