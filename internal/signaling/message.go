package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Event names exchanged with the signaling relay. The set is closed:
// messages carrying any other event are rejected at the channel boundary.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventAllUsers     = "all-users"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventUserLeft     = "user-left"

	EventDoctorLive          = "doctor-live"
	EventDoctorIsLive        = "doctor-is-live"
	EventSendNotification    = "sendNotification"
	EventReceiveNotification = "receiveNotification"
	EventAcceptNotification  = "acceptNotification"
)

// Message is the envelope for all relay traffic.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage creates a Message with the given event and payload
func NewMessage(event string, payload any) (*Message, error) {
	if !KnownEvent(event) {
		return nil, fmt.Errorf("unknown signaling event %q", event)
	}

	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		raw = b
	}

	return &Message{Event: event, Payload: raw}, nil
}

// DecodePayload decodes the message payload into the provided struct
func (m *Message) DecodePayload(v any) error {
	if m.Payload == nil {
		return fmt.Errorf("%s: empty payload", m.Event)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Event, err)
	}
	return nil
}

// KnownEvent reports whether event belongs to the closed signaling vocabulary.
func KnownEvent(event string) bool {
	switch event {
	case EventJoinRoom, EventLeaveRoom, EventAllUsers,
		EventOffer, EventAnswer, EventICECandidate, EventUserLeft,
		EventDoctorLive, EventDoctorIsLive,
		EventSendNotification, EventReceiveNotification, EventAcceptNotification:
		return true
	}
	return false
}

// Participant identifies one room member as reported by the relay.
type Participant struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// JoinRoomPayload is sent when entering a room, for both media sessions
// and presence subscriptions.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// LeaveRoomPayload is sent when leaving a room.
type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// RosterPayload lists the current members of a room (all-users).
type RosterPayload struct {
	RoomID string        `json:"roomId"`
	Users  []Participant `json:"users"`
}

// SDPPayload carries an offer or answer addressed to one participant.
type SDPPayload struct {
	From string                    `json:"from"`
	To   string                    `json:"to"`
	SDP  webrtc.SessionDescription `json:"sdp"`
}

// CandidatePayload carries one ICE candidate addressed to one participant.
type CandidatePayload struct {
	From      string                  `json:"from"`
	To        string                  `json:"to"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// UserLeftPayload announces a departed room member.
type UserLeftPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// DoctorLivePayload announces doctor availability for a room.
type DoctorLivePayload struct {
	RoomID string `json:"roomId"`
}

// NotificationPayload carries an ad-hoc consultation request between a
// patient and a doctor. RoomID is set only on acceptance.
type NotificationPayload struct {
	DoctorID  string `json:"doctorId"`
	PatientID string `json:"patientId"`
	RoomID    string `json:"roomId,omitempty"`
}
