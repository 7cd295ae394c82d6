package ses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jonboulle/clockwork"
)

// DefaultSendRate is used when the account quota cannot be discovered.
const DefaultSendRate = 14

// Rate sources reported by RateResolver.EffectiveRate.
const (
	SourceOverride = "override"
	SourceCache    = "cache"
	SourceProvider = "provider"
	SourceDefault  = "default"
)

// AccountReader reads the SES account details.
type AccountReader interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// QuotaCache persists discovered rates between processes.
type QuotaCache interface {
	Get(key string) (int, time.Time, bool)
	Set(key string, value int) error
}

// Quota is the account send quota as reported by SES.
type Quota struct {
	Max24HourSend   float64 `json:"max_24_hour_send"`
	MaxSendRate     float64 `json:"max_send_rate"`
	SentLast24Hours float64 `json:"sent_last_24_hours"`
	SendingEnabled  bool    `json:"sending_enabled"`
}

// FetchQuota asks SES for the account send quota.
func FetchQuota(ctx context.Context, accounts AccountReader) (Quota, error) {
	out, err := accounts.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return Quota{}, fmt.Errorf("getting SES account: %w", err)
	}
	if out.SendQuota == nil {
		return Quota{}, errors.New("SES account response has no send quota")
	}
	return Quota{
		Max24HourSend:   out.SendQuota.Max24HourSend,
		MaxSendRate:     out.SendQuota.MaxSendRate,
		SentLast24Hours: out.SendQuota.SentLast24Hours,
		SendingEnabled:  out.SendingEnabled,
	}, nil
}

// DiscoverSendRate returns the account max send rate rounded down, never below 1.
func DiscoverSendRate(ctx context.Context, accounts AccountReader) (int, error) {
	q, err := FetchQuota(ctx, accounts)
	if err != nil {
		return 0, err
	}
	return max(1, int(math.Floor(q.MaxSendRate))), nil
}

// RateOptions configures a RateResolver.
type RateOptions struct {
	// Override wins over any discovered value when > 0.
	Override int
	Cache    QuotaCache
	TTL      time.Duration
	CacheKey string
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

// RateResolver determines the effective send rate: a manual override, then
// a fresh cached value, then a value discovered from SES, then a stale
// cached value, then DefaultSendRate.
type RateResolver struct {
	accounts AccountReader
	opts     RateOptions
}

// NewRateResolver returns a RateResolver reading the account through accounts.
func NewRateResolver(accounts AccountReader, opts RateOptions) *RateResolver {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CacheKey == "" {
		opts.CacheKey = "ses-max-send-rate"
	}
	return &RateResolver{accounts: accounts, opts: opts}
}

// EffectiveRate returns the rate to use for the next send and where it came from.
func (r *RateResolver) EffectiveRate(ctx context.Context) (int, string) {
	if r.opts.Override > 0 {
		return r.opts.Override, SourceOverride
	}

	stale := 0
	if r.opts.Cache != nil {
		if v, at, ok := r.opts.Cache.Get(r.opts.CacheKey); ok && v > 0 {
			if r.opts.Clock.Since(at) < r.opts.TTL {
				return v, SourceCache
			}
			stale = v
		}
	}

	rate, err := r.Refresh(ctx)
	if err != nil {
		if stale > 0 {
			r.opts.Logger.Warn("send rate discovery failed, using stale cached rate",
				"rate", stale, "error", err)
			return stale, SourceCache
		}
		r.opts.Logger.Warn("send rate discovery failed, using default",
			"default_rate", DefaultSendRate, "error", err)
		return DefaultSendRate, SourceDefault
	}
	return rate, SourceProvider
}

// Refresh discovers the rate from SES and stores it in the cache.
func (r *RateResolver) Refresh(ctx context.Context) (int, error) {
	rate, err := DiscoverSendRate(ctx, r.accounts)
	if err != nil {
		return 0, err
	}
	if r.opts.Cache != nil {
		if err := r.opts.Cache.Set(r.opts.CacheKey, rate); err != nil {
			r.opts.Logger.Warn("failed to cache send rate", "error", err)
		}
	}
	r.opts.Logger.Debug("send rate discovered", "rate", rate)
	return rate, nil
}
