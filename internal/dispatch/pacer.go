package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// minPacingSleep is the smallest remainder worth sleeping for.
const minPacingSleep = time.Millisecond

// Pacer spaces payload emissions 1s/rate apart. It keeps a single
// last-emission timestamp shared by every send of the process, so it bounds
// average throughput across sends; concurrency is bounded by the Pool.
type Pacer struct {
	clock clockwork.Clock

	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewPacer returns a Pacer for rate emissions per second.
func NewPacer(rate int, clock clockwork.Clock) *Pacer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	p := &Pacer{clock: clock}
	p.SetRate(rate)
	return p
}

// IntervalFor returns the target spacing between emissions at rate.
func IntervalFor(rate int) time.Duration {
	return time.Second / time.Duration(max(1, rate))
}

// SetRate changes the target rate for subsequent emissions.
func (p *Pacer) SetRate(rate int) {
	p.mu.Lock()
	p.interval = IntervalFor(rate)
	p.mu.Unlock()
}

// Interval returns the current target spacing.
func (p *Pacer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Wait blocks until the next emission is due and records it. It returns
// early with the context error if ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		remaining := p.interval - p.clock.Since(p.last)
		if remaining > minPacingSleep {
			timer := p.clock.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.Chan():
			}
		}
	}
	p.last = p.clock.Now()
	return nil
}
