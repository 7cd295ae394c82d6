package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/sesrelay/internal/dispatch"
	"github.com/shaharia-lab/sesrelay/internal/logger"
)

// trackingRate counts how many sends are inside the dispatcher at once.
type trackingRate struct {
	inside  atomic.Int32
	maxSeen atomic.Int32
	rate    int
}

func (r *trackingRate) EffectiveRate(context.Context) (int, string) {
	n := r.inside.Add(1)
	if n > r.maxSeen.Load() {
		r.maxSeen.Store(n)
	}
	time.Sleep(5 * time.Millisecond)
	r.inside.Add(-1)
	return r.rate, "override"
}

func newTestDispatcher(sender dispatch.Sender, rates dispatch.RateSource, reg prometheus.Registerer) *dispatch.Dispatcher {
	var m *dispatch.Metrics
	if reg != nil {
		m = dispatch.NewMetrics(reg)
	}
	return dispatch.New(dispatch.Config{
		Sender:         sender,
		Rates:          rates,
		Logger:         logger.Discard(),
		Metrics:        m,
		SendsPerSecond: 1000,
	})
}

func TestDispatcher_SendSucceeds(t *testing.T) {
	sender := newFakeSender()
	reg := prometheus.NewRegistry()
	d := newTestDispatcher(sender, fixedRate(1000), reg)
	msg := personalized(3)

	res, err := d.Send(context.Background(), msg)

	require.NoError(t, err)
	assert.Len(t, res.Delivered, 3)
	assert.Equal(t, 1000, res.Rate)
	assert.Len(t, msg.Recipients, 3)
	assert.Equal(t, time.Millisecond, d.Interval())
	assert.Equal(t, 1.0, counterValue(t, reg, "sesrelay_dispatch_sends_total"))
	assert.Equal(t, 3.0, counterValue(t, reg, "sesrelay_dispatch_payloads_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestDispatcher_PartialFailureNarrowsMessage(t *testing.T) {
	sender := newFakeSender("user2@example.com", "user3@example.com")
	d := newTestDispatcher(sender, fixedRate(1000), prometheus.NewRegistry())
	msg := personalized(5)

	res, err := d.Send(context.Background(), msg)

	var pf *dispatch.PartialFailureError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, 2, pf.Count)
	assert.Equal(t, []string{"user2@example.com", "user3@example.com"}, pf.Addresses)
	assert.Len(t, res.Delivered, 3)
	require.Len(t, msg.Recipients, 2)
	assert.Equal(t, "user2@example.com", msg.Recipients[0].Address)
	assert.Equal(t, "user3@example.com", msg.Recipients[1].Address)
}

func TestDispatcher_ResubmittingNarrowedMessageRetriesOnlyFailures(t *testing.T) {
	sender := newFakeSender("user1@example.com")
	d := newTestDispatcher(sender, fixedRate(1000), nil)
	msg := personalized(4)

	_, err := d.Send(context.Background(), msg)
	require.Error(t, err)

	retry := newFakeSender()
	res, err := newTestDispatcher(retry, fixedRate(1000), nil).Send(context.Background(), msg)

	require.NoError(t, err)
	assert.Equal(t, 1, retry.calls())
	require.Len(t, res.Delivered, 1)
	assert.Equal(t, "user1@example.com", res.Delivered[0].Address)
}

func TestDispatcher_RateBelowOneIsClamped(t *testing.T) {
	d := newTestDispatcher(newFakeSender(), fixedRate(0), nil)

	res, err := d.Send(context.Background(), personalized(1))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Rate)
	assert.Equal(t, time.Second, d.Interval())
}

func TestDispatcher_SendsAreSerialized(t *testing.T) {
	rates := &trackingRate{rate: 1000}
	d := newTestDispatcher(newFakeSender(), rates, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Send(context.Background(), personalized(2))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), rates.maxSeen.Load())
}

func TestDispatcher_CancelledBeforeStart(t *testing.T) {
	sender := newFakeSender()
	d := newTestDispatcher(sender, fixedRate(1000), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Send(ctx, personalized(2))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sender.calls())
}
