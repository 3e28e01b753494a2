package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"chatgrid/internal/pkg/logx"
)

// Subscriber receives bus events. Deliver must not block: it returns false
// when the subscriber cannot accept the event, after which the bus drops it
// and closes it. Close must be safe to call more than once.
type Subscriber interface {
	Deliver(ev Event) bool
	Close()
}

// Bus fans events out to the subscribers of a logical channel. Registry is
// the in-process implementation; NATSBus spans server processes.
type Bus interface {
	Subscribe(channel string, sub Subscriber)
	Unsubscribe(channel string, sub Subscriber)
	Publish(channel string, ev Event) error
	Close()
}

// Registry is the canonical owner of the per-channel subscriber sets.
// Session actors hold no references into it; they are handed events through
// their Deliver method and address the registry only by channel name.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]struct{}
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]map[Subscriber]struct{}),
		logger:   logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Subscribe adds sub to the channel's subscriber set.
func (r *Registry) Subscribe(channel string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.channels[channel]
	if !ok {
		subs = make(map[Subscriber]struct{})
		r.channels[channel] = subs
	}
	subs[sub] = struct{}{}
}

// Unsubscribe removes sub from the channel's subscriber set. Removing an
// absent subscriber is a no-op.
func (r *Registry) Unsubscribe(channel string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if subs, ok := r.channels[channel]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(r.channels, channel)
		}
	}
}

// Empty reports whether a channel has no subscribers.
func (r *Registry) Empty(channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.channels[channel]) == 0
}

// Publish delivers ev to every subscriber currently on the channel.
// Delivery is per-subscriber best effort: a subscriber that cannot keep up
// is logged, dropped from the channel and closed, and the remaining
// subscribers still receive the event. Subscribers added after Publish
// started are not guaranteed to receive it.
func (r *Registry) Publish(channel string, ev Event) error {
	r.mu.RLock()
	snapshot := make([]Subscriber, 0, len(r.channels[channel]))
	for sub := range r.channels[channel] {
		snapshot = append(snapshot, sub)
	}
	r.mu.RUnlock()

	for _, sub := range snapshot {
		if sub.Deliver(ev) {
			continue
		}

		r.logger.Warn().
			Str("channel", channel).
			Msg("Subscriber cannot keep up, dropping it from the channel.")

		r.Unsubscribe(channel, sub)

		// Close runs the subscriber's own teardown; asynchronously, since a
		// session's Close re-enters the registry via Unsubscribe.
		go sub.Close()
	}

	return nil
}

// Close discards all subscriptions.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = make(map[string]map[Subscriber]struct{})
}
