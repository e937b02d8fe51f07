package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageRejectsUnknownEvent(t *testing.T) {
	_, err := NewMessage("teleport", nil)
	assert.Error(t, err)
}

func TestNewMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(EventJoinRoom, JoinRoomPayload{
		RoomID: "appt-1",
		UserID: "doc-1",
		Role:   "doctor",
	})
	require.NoError(t, err)
	assert.Equal(t, EventJoinRoom, msg.Event)

	var p JoinRoomPayload
	require.NoError(t, msg.DecodePayload(&p))
	assert.Equal(t, "appt-1", p.RoomID)
	assert.Equal(t, "doc-1", p.UserID)
	assert.Equal(t, "doctor", p.Role)
}

func TestDecodePayloadMalformed(t *testing.T) {
	msg := &Message{Event: EventOffer, Payload: []byte(`{"sdp":`)}

	var p SDPPayload
	assert.Error(t, msg.DecodePayload(&p))
}
