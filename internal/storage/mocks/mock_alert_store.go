package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// MockAlertStore is a mock implementation of storage.AlertStore.
type MockAlertStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockAlertStore) LogAlert(ctx context.Context, entry storage.AlertLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

//nolint:revive
func (m *MockAlertStore) ListAlerts(ctx context.Context, limit int) ([]storage.AlertLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.AlertLogEntry), args.Error(1)
}
