package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// MockSendLogStore is a mock implementation of storage.SendLogStore.
type MockSendLogStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockSendLogStore) LogSend(ctx context.Context, entry storage.SendLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

//nolint:revive
func (m *MockSendLogStore) GetSend(ctx context.Context, id string) (*storage.SendLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SendLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockSendLogStore) ListSends(ctx context.Context, limit int) ([]storage.SendLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.SendLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockSendLogStore) PurgeSends(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
