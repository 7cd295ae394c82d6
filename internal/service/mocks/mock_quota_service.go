package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/sesrelay/internal/service"
)

// MockQuotaService is a mock implementation of service.QuotaService.
type MockQuotaService struct {
	mock.Mock
}

//nolint:revive
func (m *MockQuotaService) Report(ctx context.Context) (*service.QuotaReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuotaReport), args.Error(1)
}

//nolint:revive
func (m *MockQuotaService) Refresh(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
