package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/storage"
	"github.com/shaharia-lab/sesrelay/internal/webhook"
)

// MockSuppressionService is a mock implementation of service.SuppressionService.
type MockSuppressionService struct {
	mock.Mock
}

//nolint:revive
func (m *MockSuppressionService) Suppress(ctx context.Context, channel string, entry webhook.SuppressionEntry) (int, error) {
	args := m.Called(ctx, channel, entry)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockSuppressionService) List(ctx context.Context, limit int) ([]storage.Suppression, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Suppression), args.Error(1)
}

//nolint:revive
func (m *MockSuppressionService) Remove(ctx context.Context, email, channel string) error {
	args := m.Called(ctx, email, channel)
	return args.Error(0)
}
