// Package hub fans committed session transitions out to lobby subscribers.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

// eventBuffer absorbs bursts so Publish never waits on slow subscribers
const eventBuffer = 256

// Subscriber receives events. Send must not block; a Send error drops the subscriber.
type Subscriber interface {
	Send(event *types.SessionEvent) error
	Close() error
}

// Hub coordinates event delivery and subscriber lifecycle
// ARCHITECTURAL DISCOVERY: A single run goroutine owns the subscriber set,
// so registration, removal and fan-out never race
type Hub struct {
	events     chan types.SessionEvent
	register   chan Subscriber
	unregister chan Subscriber
	shutdown   chan struct{}
	done       chan struct{}

	subscribers map[Subscriber]struct{} // owned by run
	count       atomic.Int64
	dropped     atomic.Int64

	running bool
	mu      sync.RWMutex
	log     logrus.FieldLogger
}

var _ interfaces.SessionEvents = (*Hub)(nil)

// NewHub creates a stopped hub
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		events:      make(chan types.SessionEvent, eventBuffer),
		register:    make(chan Subscriber), // unbuffered: a handoff either reaches run or fails
		unregister:  make(chan Subscriber),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		subscribers: make(map[Subscriber]struct{}),
		log:         log.WithField("component", "hub"),
	}
}

// Start begins hub processing. A hub runs at most once.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrHubAlreadyRunning
	}
	select {
	case <-h.done:
		return ErrHubNotRunning
	default:
	}
	h.running = true

	go h.run(ctx)
	h.log.Debug("hub started")
	return nil
}

// Stop closes every subscriber and waits for the run loop to exit
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return ErrHubNotRunning
	}
	h.running = false
	close(h.shutdown)
	h.mu.Unlock()

	<-h.done
	return nil
}

// Publish queues an event without blocking; when the queue is full the event is dropped
func (h *Hub) Publish(event types.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.running {
		return
	}

	select {
	case h.events <- event:
	default:
		h.dropped.Add(1)
		h.log.WithField("type", event.Type).Warn("event queue full, dropping event")
	}
}

// Register adds a subscriber
func (h *Hub) Register(sub Subscriber) error {
	if sub == nil {
		return ErrNilSubscriber
	}
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return ErrHubNotRunning
	}

	select {
	case h.register <- sub:
		return nil
	case <-h.done:
		return ErrHubNotRunning
	}
}

// Unregister removes and closes a subscriber. Safe after Stop.
func (h *Hub) Unregister(sub Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Subscribers reports the current subscriber count
func (h *Hub) Subscribers() int {
	return int(h.count.Load())
}

// Dropped reports how many events were discarded because the queue was full
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// run is the main hub processing loop
func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case event := <-h.events:
			h.broadcast(&event)

		case sub := <-h.register:
			h.subscribers[sub] = struct{}{}
			h.count.Store(int64(len(h.subscribers)))

		case sub := <-h.unregister:
			h.remove(sub)

		case <-h.shutdown:
			h.log.Debug("hub shutdown requested")
			return

		case <-ctx.Done():
			h.log.Debug("hub context cancelled")
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

// broadcast delivers to every subscriber.
// FUNCTIONAL DISCOVERY: A subscriber that cannot keep up is dropped rather
// than allowed to stall delivery to the others
func (h *Hub) broadcast(event *types.SessionEvent) {
	for sub := range h.subscribers {
		if err := sub.Send(event); err != nil {
			h.log.WithError(err).Debug("dropping subscriber")
			h.remove(sub)
		}
	}
}

func (h *Hub) remove(sub Subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	h.count.Store(int64(len(h.subscribers)))
	if err := sub.Close(); err != nil {
		h.log.WithError(err).Debug("subscriber close failed")
	}
}

func (h *Hub) closeAll() {
	for sub := range h.subscribers {
		h.remove(sub)
	}
}
