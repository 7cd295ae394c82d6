package eventbus_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/sesrelay/internal/eventbus"
	"github.com/shaharia-lab/sesrelay/internal/logger"
)

func TestPublishAndReceive(t *testing.T) {
	bus := eventbus.New(2, logger.Discard())
	defer bus.Close()

	received := make(chan eventbus.Event, 1)
	bus.Subscribe(func(e eventbus.Event) { received <- e })

	bus.Publish(eventbus.EventSuppressionAdded, map[string]string{"address": "a@example.com"})

	select {
	case e := <-received:
		assert.Equal(t, eventbus.EventSuppressionAdded, e.Type)
		assert.Equal(t, "a@example.com", e.Payload["address"])
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestMultipleListeners(t *testing.T) {
	bus := eventbus.New(2, logger.Discard())

	var count int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(_ eventbus.Event) {
			atomic.AddInt32(&count, 1)
		})
	}

	bus.Publish("multi", nil)
	bus.Close()

	assert.EqualValues(t, 3, atomic.LoadInt32(&count))
}

func TestListenerPanicDoesNotCrash(t *testing.T) {
	bus := eventbus.New(1, logger.Discard())

	var goodCalled int32
	bus.Subscribe(func(_ eventbus.Event) {
		panic("intentional panic in listener")
	})
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&goodCalled, 1)
	})

	bus.Publish("panic.event", nil)
	bus.Close()

	// The second listener should still have been called.
	assert.EqualValues(t, 1, atomic.LoadInt32(&goodCalled))
}

func TestClose(t *testing.T) {
	bus := eventbus.New(2, logger.Discard())

	var count int32
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&count, 1)
	})

	for i := 0; i < 5; i++ {
		bus.Publish("evt", nil)
	}

	// Close waits for all workers to finish processing.
	bus.Close()

	assert.EqualValues(t, 5, atomic.LoadInt32(&count))
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	bus := eventbus.New(1, logger.Discard())

	var count int32
	bus.Subscribe(func(_ eventbus.Event) { atomic.AddInt32(&count, 1) })
	bus.Close()

	assert.NotPanics(t, func() { bus.Publish("late", nil) })
	assert.NotPanics(t, bus.Close)
	assert.Zero(t, atomic.LoadInt32(&count))
}

func TestDefaultWorkers(t *testing.T) {
	// workers <= 0 and a nil logger fall back to defaults without panicking.
	bus := eventbus.New(0, nil)
	require.NotNil(t, bus)
	bus.Close()
}
