package relay

import "github.com/mehari-dev/cliniccall/internal/signaling"

// Room groups the clients of one consultation (or one watched
// appointment, for presence subscribers).
type Room struct {
	// ID is the room identifier, normally an appointment id.
	ID string

	// Members maps participant IDs to their connections.
	Members map[string]*Client
}

// NewRoom creates an empty room.
func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Members: make(map[string]*Client),
	}
}

// Roster snapshots the current membership for an all-users broadcast.
func (r *Room) Roster() []signaling.Participant {
	users := make([]signaling.Participant, 0, len(r.Members))
	for id, member := range r.Members {
		users = append(users, signaling.Participant{UserID: id, Role: member.Role})
	}
	return users
}
