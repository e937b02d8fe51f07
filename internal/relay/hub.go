// Package relay is the development signaling relay: it brokers rosters,
// session descriptions, ICE candidates, presence, and consultation
// notifications between connected clients. It keeps no persisted state
// and gives no delivery guarantee; production deployments run the real
// backend instead.
package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/mehari-dev/cliniccall/internal/signaling"
)

// Inbound pairs a parsed message with the client that sent it.
type Inbound struct {
	client *Client
	msg    *signaling.Message
}

// Hub is the central brain of the relay. It owns all room and client
// state; everything is mutated on the single Run goroutine.
type Hub struct {
	// rooms maps room IDs to Room instances.
	rooms map[string]*Room

	// users maps participant IDs to their connection, for targeted
	// delivery of signals and notifications.
	users map[string]*Client

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound carries client messages into the hub.
	Inbound chan *Inbound
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		users:      make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Inbound),
	}
}

// Run starts the hub's main processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			slog.Info("client registered", "addr", client.Conn.RemoteAddr())

		case client := <-h.Unregister:
			slog.Info("client unregistered", "addr", client.Conn.RemoteAddr(), "user", client.UserID)
			h.dropClient(client)
			close(client.Send)

		case in := <-h.Inbound:
			h.handle(in.client, in.msg)
		}
	}
}

func (h *Hub) handle(client *Client, msg *signaling.Message) {
	switch msg.Event {

	case signaling.EventJoinRoom:
		var p signaling.JoinRoomPayload
		if err := msg.DecodePayload(&p); err != nil {
			slog.Warn("bad join-room payload", "err", err)
			return
		}
		h.join(client, p)

	case signaling.EventLeaveRoom:
		var p signaling.LeaveRoomPayload
		if err := msg.DecodePayload(&p); err != nil {
			slog.Warn("bad leave-room payload", "err", err)
			return
		}
		h.leave(client, p.RoomID)

	case signaling.EventOffer, signaling.EventAnswer, signaling.EventICECandidate:
		h.forward(client, msg)

	case signaling.EventDoctorLive:
		var p signaling.DoctorLivePayload
		if err := msg.DecodePayload(&p); err != nil {
			slog.Warn("bad doctor-live payload", "err", err)
			return
		}
		h.announceLive(client, p.RoomID)

	case signaling.EventSendNotification:
		var p signaling.NotificationPayload
		if err := msg.DecodePayload(&p); err != nil {
			slog.Warn("bad notification payload", "err", err)
			return
		}
		h.deliver(p.DoctorID, signaling.EventReceiveNotification, p)

	case signaling.EventAcceptNotification:
		var p signaling.NotificationPayload
		if err := msg.DecodePayload(&p); err != nil {
			slog.Warn("bad notification payload", "err", err)
			return
		}
		h.deliver(p.PatientID, signaling.EventAcceptNotification, p)

	default:
		slog.Warn("unknown event", "event", msg.Event)
	}
}

// join adds the client to a room and broadcasts the updated roster to
// every member. Existing members need the roster too: the offer
// initiation tie-break may put the duty on them, not the joiner.
func (h *Hub) join(client *Client, p signaling.JoinRoomPayload) {
	client.UserID = p.UserID
	client.Role = p.Role
	h.users[p.UserID] = client

	room, ok := h.rooms[p.RoomID]
	if !ok {
		room = NewRoom(p.RoomID)
		h.rooms[p.RoomID] = room
		slog.Info("room created", "room", p.RoomID)
	}
	room.Members[p.UserID] = client
	client.rooms[p.RoomID] = true

	roster := signaling.RosterPayload{RoomID: room.ID, Users: room.Roster()}
	for _, member := range room.Members {
		h.send(member, signaling.EventAllUsers, roster)
	}
}

// leave removes the client from one room and tells the remaining
// members.
func (h *Hub) leave(client *Client, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, member := room.Members[client.UserID]; !member {
		return
	}

	delete(room.Members, client.UserID)
	delete(client.rooms, roomID)

	if len(room.Members) == 0 {
		delete(h.rooms, roomID)
		slog.Info("room deleted", "room", roomID)
		return
	}

	left := signaling.UserLeftPayload{RoomID: roomID, UserID: client.UserID}
	for _, member := range room.Members {
		h.send(member, signaling.EventUserLeft, left)
	}
}

// forward relays a targeted signal (offer/answer/candidate) unchanged.
func (h *Hub) forward(client *Client, msg *signaling.Message) {
	var addr struct {
		To string `json:"to"`
	}
	if err := json.Unmarshal(msg.Payload, &addr); err != nil || addr.To == "" {
		slog.Warn("unaddressed signal", "event", msg.Event, "from", client.UserID)
		return
	}

	target, ok := h.users[addr.To]
	if !ok {
		slog.Warn("signal for unknown user", "event", msg.Event, "to", addr.To)
		return
	}
	select {
	case target.Send <- msg:
	default:
		slog.Warn("client send buffer full, dropping", "user", addr.To, "event", msg.Event)
	}
}

// announceLive fans doctor-is-live out to the other members of the room.
func (h *Hub) announceLive(client *Client, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for id, member := range room.Members {
		if id == client.UserID {
			continue
		}
		h.send(member, signaling.EventDoctorIsLive, signaling.DoctorLivePayload{RoomID: roomID})
	}
}

// deliver sends a notification event to one participant, best-effort.
func (h *Hub) deliver(userID, event string, payload any) {
	target, ok := h.users[userID]
	if !ok {
		slog.Warn("notification for offline user", "event", event, "to", userID)
		return
	}
	h.send(target, event, payload)
}

// dropClient removes a disconnected client from every room it joined.
func (h *Hub) dropClient(client *Client) {
	for roomID := range client.rooms {
		h.leave(client, roomID)
	}
	if client.UserID != "" && h.users[client.UserID] == client {
		delete(h.users, client.UserID)
	}
}

func (h *Hub) send(client *Client, event string, payload any) {
	msg, err := signaling.NewMessage(event, payload)
	if err != nil {
		slog.Error("encode relay message", "event", event, "err", err)
		return
	}
	select {
	case client.Send <- msg:
	default:
		slog.Warn("client send buffer full, dropping", "user", client.UserID, "event", event)
	}
}
