package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSubscriber records deliveries and can simulate a subscriber that
// cannot keep up.
type stubSubscriber struct {
	mu        sync.Mutex
	delivered []Event
	accept    bool

	closeOnce sync.Once
	closed    chan struct{}
}

func newStubSubscriber(accept bool) *stubSubscriber {
	return &stubSubscriber{accept: accept, closed: make(chan struct{})}
}

func (s *stubSubscriber) Deliver(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accept {
		return false
	}
	s.delivered = append(s.delivered, ev)
	return true
}

func (s *stubSubscriber) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *stubSubscriber) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.delivered...)
}

func TestRegistryPublishReachesChannelSubscribers(t *testing.T) {
	reg := NewRegistry()

	subA := newStubSubscriber(true)
	subB := newStubSubscriber(true)
	other := newStubSubscriber(true)

	reg.Subscribe("global-lobby", subA)
	reg.Subscribe("global-lobby", subB)
	reg.Subscribe("group-alice-group-team", other)

	err := reg.Publish("global-lobby", NewMessage{MessageID: 42})
	require.NoError(t, err)

	assert.Equal(t, []Event{NewMessage{MessageID: 42}}, subA.events())
	assert.Equal(t, []Event{NewMessage{MessageID: 42}}, subB.events())
	assert.Empty(t, other.events(), "subscriber on a different channel must not receive the event")
}

func TestRegistryPublishToEmptyChannel(t *testing.T) {
	reg := NewRegistry()

	err := reg.Publish("global-lobby", PresenceCount{Count: 0})
	require.NoError(t, err)
}

func TestRegistryUnsubscribeStopsDelivery(t *testing.T) {
	reg := NewRegistry()
	sub := newStubSubscriber(true)

	reg.Subscribe("global-lobby", sub)
	reg.Unsubscribe("global-lobby", sub)

	require.NoError(t, reg.Publish("global-lobby", NewMessage{MessageID: 7}))

	assert.Empty(t, sub.events())
	assert.True(t, reg.Empty("global-lobby"))
}

func TestRegistryUnsubscribeUnknownIsNoop(t *testing.T) {
	reg := NewRegistry()

	reg.Unsubscribe("global-lobby", newStubSubscriber(true))

	assert.True(t, reg.Empty("global-lobby"))
}

func TestRegistrySlowConsumerIsDroppedAndClosed(t *testing.T) {
	reg := NewRegistry()

	slow := newStubSubscriber(false)
	healthy := newStubSubscriber(true)

	reg.Subscribe("global-lobby", slow)
	reg.Subscribe("global-lobby", healthy)

	require.NoError(t, reg.Publish("global-lobby", NewMessage{MessageID: 1}))

	select {
	case <-slow.closed:
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was not closed")
	}

	assert.Equal(t, []Event{NewMessage{MessageID: 1}}, healthy.events(),
		"remaining subscribers still receive the event")

	// The slow subscriber is gone; the next publish reaches only the
	// healthy one.
	require.NoError(t, reg.Publish("global-lobby", NewMessage{MessageID: 2}))
	assert.Len(t, healthy.events(), 2)
}

func TestRegistrySubscribeIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	sub := newStubSubscriber(true)

	reg.Subscribe("global-lobby", sub)
	reg.Subscribe("global-lobby", sub)

	require.NoError(t, reg.Publish("global-lobby", PresenceCount{Count: 3}))

	assert.Len(t, sub.events(), 1, "a doubly subscribed session must receive each event once")
}
