package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sessionhub/internal/logger"
	"sessionhub/pkg/types"
)

type fakeSubscriber struct {
	mu      sync.Mutex
	events  []types.EventType
	closed  bool
	failing bool
	block   chan struct{}
}

func (f *fakeSubscriber) Send(event *types.SessionEvent) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("slow consumer")
	}
	f.events = append(f.events, event.Type)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) received() []types.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.EventType(nil), f.events...)
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(logger.Discard())
	require.NoError(t, h.Start(context.Background()))
	t.Cleanup(func() { _ = h.Stop() })
	return h
}

func event(eventType types.EventType) types.SessionEvent {
	return types.SessionEvent{Type: eventType, Session: &types.Session{ID: "s1"}, At: time.Now()}
}

// FUNCTIONAL VALIDATION TEST: Hub lifecycle management
func TestHub_StartStop(t *testing.T) {
	h := NewHub(logger.Discard())
	require.ErrorIs(t, h.Stop(), ErrHubNotRunning)

	require.NoError(t, h.Start(context.Background()))
	require.ErrorIs(t, h.Start(context.Background()), ErrHubAlreadyRunning)
	require.NoError(t, h.Stop())
	require.ErrorIs(t, h.Stop(), ErrHubNotRunning)

	// A stopped hub does not restart.
	require.ErrorIs(t, h.Start(context.Background()), ErrHubNotRunning)
}

func TestHub_BroadcastsToEverySubscriber(t *testing.T) {
	h := startHub(t)
	a, b := &fakeSubscriber{}, &fakeSubscriber{}
	require.NoError(t, h.Register(a))
	require.NoError(t, h.Register(b))
	require.Eventually(t, func() bool { return h.Subscribers() == 2 }, time.Second, 5*time.Millisecond)

	h.Publish(event(types.EventSessionCreated))
	h.Publish(event(types.EventSessionEnded))

	want := []types.EventType{types.EventSessionCreated, types.EventSessionEnded}
	require.Eventually(t, func() bool { return len(a.received()) == 2 && len(b.received()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, want, a.received())
	require.Equal(t, want, b.received())
}

func TestHub_UnregisterClosesSubscriber(t *testing.T) {
	h := startHub(t)
	sub := &fakeSubscriber{}
	require.NoError(t, h.Register(sub))
	h.Unregister(sub)

	require.Eventually(t, func() bool { return sub.isClosed() && h.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	// Unregistering twice is harmless.
	h.Unregister(sub)
}

func TestHub_DropsFailingSubscriber(t *testing.T) {
	h := startHub(t)
	healthy, failing := &fakeSubscriber{}, &fakeSubscriber{failing: true}
	require.NoError(t, h.Register(healthy))
	require.NoError(t, h.Register(failing))

	h.Publish(event(types.EventSessionJoined))

	require.Eventually(t, func() bool { return failing.isClosed() && h.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(healthy.received()) == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, healthy.isClosed())
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	h := NewHub(logger.Discard())
	require.NoError(t, h.Start(context.Background()))
	sub := &fakeSubscriber{}
	require.NoError(t, h.Register(sub))
	require.NoError(t, h.Stop())

	require.True(t, sub.isClosed())
	require.ErrorIs(t, h.Register(&fakeSubscriber{}), ErrHubNotRunning)

	// Publishing and unregistering after stop neither panic nor block.
	h.Publish(event(types.EventSessionCreated))
	h.Unregister(sub)
}

func TestHub_ContextCancellationStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(logger.Discard())
	require.NoError(t, h.Start(ctx))
	sub := &fakeSubscriber{}
	require.NoError(t, h.Register(sub))

	cancel()
	require.Eventually(t, sub.isClosed, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, h.Register(&fakeSubscriber{}), ErrHubNotRunning)
}

// TECHNICAL VALIDATION TEST: Publish never blocks on a stalled fan-out
func TestHub_PublishDropsWhenQueueFull(t *testing.T) {
	h := startHub(t)
	stall := &fakeSubscriber{block: make(chan struct{})}
	require.NoError(t, h.Register(stall))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < eventBuffer+10; i++ {
			h.Publish(event(types.EventSessionCreated))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
	require.Positive(t, h.Dropped())
	close(stall.block)
}

func TestHub_RegisterRejectsNil(t *testing.T) {
	h := startHub(t)
	require.ErrorIs(t, h.Register(nil), ErrNilSubscriber)
}
