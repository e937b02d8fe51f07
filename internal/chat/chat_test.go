package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	sent := Message{
		Sender: "doc-1",
		Role:   "doctor",
		Text:   "How are you feeling today?",
		SentAt: time.Now().Truncate(time.Second),
	}

	env, err := NewEnvelope(typeChat, sent)
	require.NoError(t, err)
	assert.Equal(t, typeChat, env.Type)

	// Across the wire the envelope itself is msgpack too.
	wire, err := msgpack.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, msgpack.Unmarshal(wire, &decoded))

	var got Message
	require.NoError(t, decoded.DecodePayload(&got))
	assert.Equal(t, sent.Sender, got.Sender)
	assert.Equal(t, sent.Role, got.Role)
	assert.Equal(t, sent.Text, got.Text)
	assert.WithinDuration(t, sent.SentAt, got.SentAt, time.Second)
}

func TestDecodePayloadWrongShape(t *testing.T) {
	env, err := NewEnvelope(typeChat, "just a string")
	require.NoError(t, err)

	var got Message
	assert.Error(t, env.DecodePayload(&got))
}
