package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/service"
	"github.com/shaharia-lab/sesrelay/internal/storage"
)

// MockSendService is a mock implementation of service.SendService.
type MockSendService struct {
	mock.Mock
}

//nolint:revive
func (m *MockSendService) Send(ctx context.Context, msg *mail.Message) (*service.SendReport, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendReport), args.Error(1)
}

//nolint:revive
func (m *MockSendService) Get(ctx context.Context, id string) (*storage.SendLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SendLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockSendService) List(ctx context.Context, limit int) ([]storage.SendLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.SendLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockSendService) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
