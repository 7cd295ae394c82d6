// Package eventbus provides an in-memory, asynchronous event bus for the application.
// Events are dispatched through a buffered channel and processed by a worker pool.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

// EventBus is the interface for publishing events and managing subscribers.
type EventBus interface {
	// Publish enqueues an event with the given type and payload.
	// It never blocks: if the buffer is full or the bus is closed, the event
	// is dropped and a warning is logged.
	Publish(eventType string, payload map[string]string)

	// Subscribe registers a listener that will be called for every published event.
	// All listeners are invoked for each event (broadcast).
	Subscribe(listener Listener)

	// Close stops accepting new events and waits for all pending events to be processed.
	Close()
}

type inMemoryBus struct {
	ch        chan Event
	listeners []Listener
	mu        sync.RWMutex
	// sendMu guards ch against a Publish racing Close.
	sendMu  sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	workers int
	logger  *slog.Logger
}

// New creates a new in-memory EventBus with the specified number of worker goroutines.
// If workers is <= 0, defaultWorkers (3) is used.
func New(workers int, logger *slog.Logger) EventBus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &inMemoryBus{
		ch:      make(chan Event, defaultBufferSize),
		workers: workers,
		logger:  logger,
	}
	b.startWorkers()
	return b
}

func (b *inMemoryBus) startWorkers() {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for e := range b.ch {
				b.dispatch(e)
			}
		}()
	}
}

// dispatch calls all registered listeners for the given event, recovering
// from listener panics.
func (b *inMemoryBus) dispatch(e Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("eventbus listener panicked", "event", e.Type, "panic", r)
				}
			}()
			l(e)
		}()
	}
}

func (b *inMemoryBus) Publish(eventType string, payload map[string]string) {
	e := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		b.logger.Warn("eventbus closed, dropping event", "event", eventType)
		return
	}
	select {
	case b.ch <- e:
	default:
		b.logger.Warn("eventbus buffer full, dropping event", "event", eventType)
	}
}

func (b *inMemoryBus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Close drains and closes the event channel, then waits for all workers to
// finish. Calling Close more than once is safe.
func (b *inMemoryBus) Close() {
	b.sendMu.Lock()
	if b.closed {
		b.sendMu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.sendMu.Unlock()
	b.wg.Wait()
}
