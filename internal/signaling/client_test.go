package signaling

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoRelay upgrades one connection and echoes every message back.
func echoRelay(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if err := conn.WriteJSON(&msg); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientEmitAndReceive(t *testing.T) {
	server := echoRelay(t)
	defer server.Close()

	client := NewClient(wsURL(server))
	require.NoError(t, client.Connect())
	defer client.Close()

	err := client.Emit(EventDoctorLive, DoctorLivePayload{RoomID: "appt-1"})
	require.NoError(t, err)

	select {
	case msg := <-client.Incoming():
		require.NotNil(t, msg)
		assert.Equal(t, EventDoctorLive, msg.Event)
		var p DoctorLivePayload
		require.NoError(t, msg.DecodePayload(&p))
		assert.Equal(t, "appt-1", p.RoomID)
	case <-time.After(3 * time.Second):
		t.Fatal("no echo from relay")
	}
}

func TestClientEmitRejectsUnknownEvent(t *testing.T) {
	server := echoRelay(t)
	defer server.Close()

	client := NewClient(wsURL(server))
	require.NoError(t, client.Connect())
	defer client.Close()

	assert.Error(t, client.Emit("no-such-event", nil))
}

func TestClientIncomingClosesOnDisconnect(t *testing.T) {
	server := echoRelay(t)

	client := NewClient(wsURL(server))
	require.NoError(t, client.Connect())
	defer client.Close()

	server.CloseClientConnections()

	select {
	case _, ok := <-client.Incoming():
		assert.False(t, ok, "incoming should be closed after disconnect")
	case <-time.After(3 * time.Second):
		t.Fatal("incoming never closed")
	}
	server.Close()
}

func TestClientConnectBadURL(t *testing.T) {
	client := NewClient("://not-a-url")
	assert.Error(t, client.Connect())
}

func TestClientConnectLeavesDefaultDialerAlone(t *testing.T) {
	server := echoRelay(t)
	defer server.Close()

	client := NewClient(wsURL(server))
	require.NoError(t, client.Connect())
	defer client.Close()

	assert.Nil(t, websocket.DefaultDialer.NetDial,
		"Connect must not install its DNS hook on the shared dialer")
}
