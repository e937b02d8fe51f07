package relay

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehari-dev/cliniccall/internal/signaling"
)

func startRelay(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(NewServer().Handler())
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func connect(t *testing.T, url string) (*signaling.Client, *signaling.Router) {
	t.Helper()
	client := signaling.NewClient(url)
	require.NoError(t, client.Connect())
	t.Cleanup(client.Close)

	router := signaling.NewRouter(client)
	go router.Run()
	return client, router
}

func join(t *testing.T, client *signaling.Client, roomID, userID, role string) {
	t.Helper()
	require.NoError(t, client.Emit(signaling.EventJoinRoom, signaling.JoinRoomPayload{
		RoomID: roomID,
		UserID: userID,
		Role:   role,
	}))
}

func expectRoster(t *testing.T, router *signaling.Router, size int) *signaling.RosterPayload {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case p := <-router.Roster:
			if len(p.Users) == size {
				return p
			}
			// Smaller roster from an earlier join; keep waiting.
		case <-deadline:
			t.Fatalf("no roster with %d users", size)
			return nil
		}
	}
}

func TestJoinBroadcastsRosterToAllMembers(t *testing.T) {
	url := startRelay(t)

	doctor, doctorRouter := connect(t, url)
	patient, patientRouter := connect(t, url)

	join(t, doctor, "appt-1", "doc-1", "doctor")
	expectRoster(t, doctorRouter, 1)

	join(t, patient, "appt-1", "pat-1", "patient")

	// Both the newcomer and the existing member get the full roster.
	for _, router := range []*signaling.Router{doctorRouter, patientRouter} {
		p := expectRoster(t, router, 2)
		assert.Equal(t, "appt-1", p.RoomID)
		ids := map[string]string{}
		for _, u := range p.Users {
			ids[u.UserID] = u.Role
		}
		assert.Equal(t, map[string]string{"doc-1": "doctor", "pat-1": "patient"}, ids)
	}
}

func TestTargetedSignalForwarding(t *testing.T) {
	url := startRelay(t)

	doctor, doctorRouter := connect(t, url)
	patient, patientRouter := connect(t, url)
	bystander, bystanderRouter := connect(t, url)

	join(t, doctor, "appt-1", "doc-1", "doctor")
	join(t, patient, "appt-1", "pat-1", "patient")
	join(t, bystander, "appt-1", "pat-2", "patient")
	expectRoster(t, doctorRouter, 3)

	require.NoError(t, doctor.Emit(signaling.EventOffer, signaling.SDPPayload{
		From: "doc-1", To: "pat-1",
		SDP: webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"},
	}))

	select {
	case p := <-patientRouter.Offer:
		assert.Equal(t, "doc-1", p.From)
		assert.Equal(t, "pat-1", p.To)
		assert.Equal(t, webrtc.SDPTypeOffer, p.SDP.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("offer not forwarded to target")
	}

	select {
	case <-bystanderRouter.Offer:
		t.Fatal("offer leaked to a non-addressee")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLeaveNotifiesRemainingMembers(t *testing.T) {
	url := startRelay(t)

	doctor, doctorRouter := connect(t, url)
	patient, _ := connect(t, url)

	join(t, doctor, "appt-1", "doc-1", "doctor")
	join(t, patient, "appt-1", "pat-1", "patient")
	expectRoster(t, doctorRouter, 2)

	require.NoError(t, patient.Emit(signaling.EventLeaveRoom, signaling.LeaveRoomPayload{
		RoomID: "appt-1",
		UserID: "pat-1",
	}))

	select {
	case p := <-doctorRouter.UserLeft:
		assert.Equal(t, "appt-1", p.RoomID)
		assert.Equal(t, "pat-1", p.UserID)
	case <-time.After(3 * time.Second):
		t.Fatal("user-left not delivered")
	}
}

func TestDisconnectActsAsLeave(t *testing.T) {
	url := startRelay(t)

	doctor, doctorRouter := connect(t, url)
	patient, _ := connect(t, url)

	join(t, doctor, "appt-1", "doc-1", "doctor")
	join(t, patient, "appt-1", "pat-1", "patient")
	expectRoster(t, doctorRouter, 2)

	patient.Close()

	select {
	case p := <-doctorRouter.UserLeft:
		assert.Equal(t, "pat-1", p.UserID)
	case <-time.After(3 * time.Second):
		t.Fatal("disconnect did not produce user-left")
	}
}

func TestDoctorLiveFansOutToRoom(t *testing.T) {
	url := startRelay(t)

	doctor, doctorRouter := connect(t, url)
	patient, patientRouter := connect(t, url)

	join(t, patient, "appt-1", "pat-1", "patient")
	join(t, doctor, "appt-1", "doc-1", "doctor")
	expectRoster(t, doctorRouter, 2)

	require.NoError(t, doctor.Emit(signaling.EventDoctorLive, signaling.DoctorLivePayload{RoomID: "appt-1"}))

	select {
	case p := <-patientRouter.DoctorLive:
		assert.Equal(t, "appt-1", p.RoomID)
	case <-time.After(3 * time.Second):
		t.Fatal("doctor-is-live not delivered")
	}
}

func TestConsultationRequestRoundTrip(t *testing.T) {
	url := startRelay(t)

	doctor, doctorRouter := connect(t, url)
	patient, patientRouter := connect(t, url)

	// Both sides register an identity by joining their inbox rooms; the
	// roster echo confirms the relay has seen each join.
	join(t, doctor, "inbox:doc-1", "doc-1", "doctor")
	expectRoster(t, doctorRouter, 1)
	join(t, patient, "inbox:pat-1", "pat-1", "patient")
	expectRoster(t, patientRouter, 1)

	require.NoError(t, patient.Emit(signaling.EventSendNotification, signaling.NotificationPayload{
		DoctorID:  "doc-1",
		PatientID: "pat-1",
	}))

	select {
	case p := <-doctorRouter.Notification:
		assert.Equal(t, "pat-1", p.PatientID)
	case <-time.After(3 * time.Second):
		t.Fatal("request not delivered to doctor")
	}

	require.NoError(t, doctor.Emit(signaling.EventAcceptNotification, signaling.NotificationPayload{
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		RoomID:    "room-xyz",
	}))

	select {
	case p := <-patientRouter.Accepted:
		assert.Equal(t, "room-xyz", p.RoomID)
	case <-time.After(3 * time.Second):
		t.Fatal("acceptance not delivered to patient")
	}
}
