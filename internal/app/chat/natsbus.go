package chat

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"chatgrid/internal/pkg/logx"
)

// subjectPrefix namespaces chatgrid traffic on a shared NATS deployment.
const subjectPrefix = "chat.room."

// envelope is the wire form of an Event on NATS.
type envelope struct {
	Kind      string `json:"kind"`
	MessageID int64  `json:"message_id,omitempty"`
	Count     int64  `json:"count"`
}

const (
	envelopeKindNewMessage    = "new_message"
	envelopeKindPresenceCount = "presence_count"
)

func encodeEvent(ev Event) (envelope, error) {
	switch ev := ev.(type) {
	case NewMessage:
		return envelope{Kind: envelopeKindNewMessage, MessageID: ev.MessageID}, nil
	case PresenceCount:
		return envelope{Kind: envelopeKindPresenceCount, Count: ev.Count}, nil
	default:
		return envelope{}, fmt.Errorf("unknown event type %T", ev)
	}
}

func decodeEvent(env envelope) (Event, error) {
	switch env.Kind {
	case envelopeKindNewMessage:
		return NewMessage{MessageID: env.MessageID}, nil
	case envelopeKindPresenceCount:
		return PresenceCount{Count: env.Count}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
}

// NATSBus spans the broadcast bus across server processes. Local subscriber
// bookkeeping stays in an embedded Registry; Publish goes out through NATS
// only, and each process's own subscription fans received envelopes back
// into its local registry. One NATS subscription exists per channel with at
// least one local subscriber.
type NATSBus struct {
	nc    *nats.Conn
	local *Registry

	mu   sync.Mutex
	subs map[string]*nats.Subscription

	logger zerolog.Logger
}

// NewNATSBus connects to NATS and wraps the given local registry.
func NewNATSBus(url string, local *Registry) (*NATSBus, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSBus{
		nc:     nc,
		local:  local,
		subs:   make(map[string]*nats.Subscription),
		logger: logx.Logger().With().Str("component", "NATSBus").Logger(),
	}, nil
}

func subjectFor(channel string) string {
	return subjectPrefix + channel
}

// Subscribe registers sub locally and ensures the channel's NATS
// subscription exists.
func (b *NATSBus) Subscribe(channel string, sub Subscriber) {
	b.local.Subscribe(channel, sub)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[channel]; exists {
		return
	}

	natsSub, err := b.nc.Subscribe(subjectFor(channel), func(msg *nats.Msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			b.logger.Warn().Err(err).Str("channel", channel).Msg("Dropping undecodable bus envelope.")
			return
		}

		ev, err := decodeEvent(env)
		if err != nil {
			b.logger.Warn().Err(err).Str("channel", channel).Msg("Dropping unknown bus event.")
			return
		}

		b.local.Publish(channel, ev)
	})
	if err != nil {
		b.logger.Error().Err(err).Str("channel", channel).Msg("Failed to open NATS subscription.")
		return
	}

	b.subs[channel] = natsSub
}

// Unsubscribe removes sub locally and drops the channel's NATS subscription
// once no local subscriber remains.
func (b *NATSBus) Unsubscribe(channel string, sub Subscriber) {
	b.local.Unsubscribe(channel, sub)

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.local.Empty(channel) {
		return
	}

	if natsSub, exists := b.subs[channel]; exists {
		if err := natsSub.Unsubscribe(); err != nil {
			b.logger.Warn().Err(err).Str("channel", channel).Msg("Failed to drop NATS subscription.")
		}
		delete(b.subs, channel)
	}
}

// Publish sends the event to every process subscribed to the channel,
// including this one.
func (b *NATSBus) Publish(channel string, ev Event) error {
	env, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize bus event: %w", err)
	}

	return b.nc.Publish(subjectFor(channel), data)
}

// Close drops all NATS subscriptions and the connection.
func (b *NATSBus) Close() {
	b.mu.Lock()
	for channel, natsSub := range b.subs {
		_ = natsSub.Unsubscribe()
		delete(b.subs, channel)
	}
	b.mu.Unlock()

	b.local.Close()
	b.nc.Close()
}
