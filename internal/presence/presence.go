// Package presence carries the signaling that precedes room entry:
// doctors announcing availability for an appointment room, and patients
// requesting ad-hoc consultations. The channel is best-effort, at most
// once, with no persisted state and no delivery guarantee.
package presence

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mehari-dev/cliniccall/internal/signaling"
)

// Emitter sends named signaling events.
type Emitter interface {
	Emit(event string, payload any) error
}

// Watcher tracks which appointment rooms have a live doctor.
type Watcher struct {
	mu   sync.RWMutex
	live map[string]bool
}

// NewWatcher creates an empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{live: make(map[string]bool)}
}

// Subscribe registers interest in a set of appointment rooms so that
// doctor-is-live announcements for them reach this client.
func (w *Watcher) Subscribe(sig Emitter, userID, role string, roomIDs []string) error {
	for _, roomID := range roomIDs {
		err := sig.Emit(signaling.EventJoinRoom, signaling.JoinRoomPayload{
			RoomID: roomID,
			UserID: userID,
			Role:   role,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// HandleLive flips the live flag for a room. Fed from the router's
// DoctorLive channel.
func (w *Watcher) HandleLive(p *signaling.DoctorLivePayload) {
	w.mu.Lock()
	w.live[p.RoomID] = true
	w.mu.Unlock()
}

// IsLive reports whether a doctor has announced availability for a room.
func (w *Watcher) IsLive(roomID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.live[roomID]
}

// LiveRooms lists the rooms currently flagged live.
func (w *Watcher) LiveRooms() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rooms := make([]string, 0, len(w.live))
	for roomID, live := range w.live {
		if live {
			rooms = append(rooms, roomID)
		}
	}
	return rooms
}

// Announce broadcasts doctor availability for a room. Doctors call this
// right before entering the consultation room.
func Announce(sig Emitter, roomID string) error {
	return sig.Emit(signaling.EventDoctorLive, signaling.DoctorLivePayload{RoomID: roomID})
}

// Notifier handles ad-hoc consultation requests outside any appointment.
type Notifier struct {
	sig Emitter
}

// NewNotifier creates a notifier over the given signaling channel.
func NewNotifier(sig Emitter) *Notifier {
	return &Notifier{sig: sig}
}

// Request asks a doctor for a live consultation on behalf of a patient.
func (n *Notifier) Request(doctorID, patientID string) error {
	return n.sig.Emit(signaling.EventSendNotification, signaling.NotificationPayload{
		DoctorID:  doctorID,
		PatientID: patientID,
	})
}

// Accept answers a consultation request with a freshly generated room id
// the patient can join.
func (n *Notifier) Accept(doctorID, patientID string) (string, error) {
	roomID := uuid.NewString()
	err := n.sig.Emit(signaling.EventAcceptNotification, signaling.NotificationPayload{
		DoctorID:  doctorID,
		PatientID: patientID,
		RoomID:    roomID,
	})
	if err != nil {
		return "", err
	}
	return roomID, nil
}
