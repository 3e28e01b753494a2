package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventEnvelopeRoundTrip(t *testing.T) {
	cases := []Event{
		NewMessage{MessageID: 42},
		PresenceCount{Count: 3},
		PresenceCount{Count: 0},
	}

	for _, ev := range cases {
		env, err := encodeEvent(ev)
		require.NoError(t, err)

		data, err := json.Marshal(env)
		require.NoError(t, err)

		var decodedEnv envelope
		require.NoError(t, json.Unmarshal(data, &decodedEnv))

		decoded, err := decodeEvent(decodedEnv)
		require.NoError(t, err)
		assert.Equal(t, ev, decoded)
	}
}

func TestDecodeEventRejectsUnknownKind(t *testing.T) {
	_, err := decodeEvent(envelope{Kind: "typing"})
	assert.Error(t, err)
}
