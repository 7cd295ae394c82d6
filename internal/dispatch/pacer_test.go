package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/sesrelay/internal/dispatch"
)

func TestIntervalFor(t *testing.T) {
	assert.Equal(t, time.Second, dispatch.IntervalFor(0))
	assert.Equal(t, time.Second, dispatch.IntervalFor(-5))
	assert.Equal(t, time.Second, dispatch.IntervalFor(1))
	assert.Equal(t, 100*time.Millisecond, dispatch.IntervalFor(10))
	assert.Equal(t, 71428571*time.Nanosecond, dispatch.IntervalFor(14))
}

func TestPacer_FirstEmissionIsImmediate(t *testing.T) {
	p := dispatch.NewPacer(10, clockwork.NewFakeClock())
	assert.NoError(t, p.Wait(context.Background()))
}

func TestPacer_SleepsRemainder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClock()
	p := dispatch.NewPacer(10, clock)
	require.NoError(t, p.Wait(ctx))

	clock.Advance(30 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	select {
	case <-done:
		t.Fatal("wait returned before the interval elapsed")
	default:
	}

	clock.Advance(70 * time.Millisecond)
	require.NoError(t, <-done)
}

func TestPacer_NoSleepWhenIntervalAlreadyElapsed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := dispatch.NewPacer(10, clock)
	require.NoError(t, p.Wait(context.Background()))

	clock.Advance(150 * time.Millisecond)

	assert.NoError(t, p.Wait(context.Background()))
}

func TestPacer_NoSleepBelowFloor(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := dispatch.NewPacer(1000, clock)
	require.NoError(t, p.Wait(context.Background()))

	assert.NoError(t, p.Wait(context.Background()))
}

func TestPacer_ContextCancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := dispatch.NewPacer(1, clock)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPacer_SetRate(t *testing.T) {
	p := dispatch.NewPacer(1, clockwork.NewFakeClock())
	p.SetRate(4)
	assert.Equal(t, 250*time.Millisecond, p.Interval())
}
