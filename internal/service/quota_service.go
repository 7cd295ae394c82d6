package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaharia-lab/sesrelay/internal/eventbus"
	"github.com/shaharia-lab/sesrelay/internal/ses"
)

// RateSource resolves and refreshes the effective send rate.
type RateSource interface {
	EffectiveRate(ctx context.Context) (int, string)
	Refresh(ctx context.Context) (int, error)
}

// QuotaReport combines the SES account quota with the rate sends will use.
type QuotaReport struct {
	Region        string     `json:"region"`
	Quota         *ses.Quota `json:"quota,omitempty"`
	QuotaError    string     `json:"quota_error,omitempty"`
	EffectiveRate int        `json:"effective_rate"`
	RateSource    string     `json:"rate_source"`
}

// QuotaService reports and refreshes the SES send quota.
type QuotaService interface {
	Report(ctx context.Context) (*QuotaReport, error)
	// Refresh rediscovers the provider rate and updates the cache.
	Refresh(ctx context.Context) (int, error)
}

type quotaService struct {
	region    string
	accounts  ses.AccountReader
	rates     RateSource
	publisher EventPublisher
	logger    *slog.Logger
}

// NewQuotaService returns a new QuotaService.
func NewQuotaService(region string, accounts ses.AccountReader, rates RateSource, publisher EventPublisher, logger *slog.Logger) QuotaService {
	return &quotaService{region: region, accounts: accounts, rates: rates, publisher: publisher, logger: logger}
}

// Report never fails because the provider is unreachable; the error is
// carried in QuotaError and the rate falls back as usual.
func (s *quotaService) Report(ctx context.Context) (*QuotaReport, error) {
	report := &QuotaReport{Region: s.region}
	q, err := ses.FetchQuota(ctx, s.accounts)
	if err != nil {
		s.logger.Warn("fetching SES quota", "error", err)
		report.QuotaError = err.Error()
	} else {
		report.Quota = &q
	}
	report.EffectiveRate, report.RateSource = s.rates.EffectiveRate(ctx)
	return report, nil
}

func (s *quotaService) Refresh(ctx context.Context) (int, error) {
	rate, err := s.rates.Refresh(ctx)
	if err != nil {
		s.publisher.Publish(eventbus.EventQuotaRefreshFailed, map[string]string{
			"region": s.region,
			"error":  err.Error(),
		})
		return 0, fmt.Errorf("refreshing send rate: %w", err)
	}
	s.logger.Info("send rate refreshed", "rate", rate, "region", s.region)
	return rate, nil
}
