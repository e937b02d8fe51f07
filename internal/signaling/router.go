package signaling

import "log/slog"

// Router fans incoming relay messages out to typed channels. Malformed
// payloads are reported and dropped; they never tear the session down.
type Router struct {
	client *Client

	Roster       chan *RosterPayload
	Offer        chan *SDPPayload
	Answer       chan *SDPPayload
	Candidate    chan *CandidatePayload
	UserLeft     chan *UserLeftPayload
	DoctorLive   chan *DoctorLivePayload
	Notification chan *NotificationPayload
	Accepted     chan *NotificationPayload

	// Disconnected is closed when the relay connection drops.
	Disconnected chan struct{}
}

// NewRouter creates a router over the client's incoming stream.
func NewRouter(client *Client) *Router {
	return &Router{
		client:       client,
		Roster:       make(chan *RosterPayload, 4),
		Offer:        make(chan *SDPPayload, 8),
		Answer:       make(chan *SDPPayload, 8),
		Candidate:    make(chan *CandidatePayload, 32),
		UserLeft:     make(chan *UserLeftPayload, 8),
		DoctorLive:   make(chan *DoctorLivePayload, 8),
		Notification: make(chan *NotificationPayload, 8),
		Accepted:     make(chan *NotificationPayload, 1),
		Disconnected: make(chan struct{}),
	}
}

// Run consumes the client's incoming stream until it closes, then marks
// the router disconnected. Runs in its own goroutine.
func (r *Router) Run() {
	defer close(r.Disconnected)

	for msg := range r.client.Incoming() {
		r.dispatch(msg)
	}
}

func (r *Router) dispatch(msg *Message) {
	switch msg.Event {

	case EventAllUsers:
		deliver(msg, r.Roster)

	case EventOffer:
		deliver(msg, r.Offer)

	case EventAnswer:
		deliver(msg, r.Answer)

	case EventICECandidate:
		deliver(msg, r.Candidate)

	case EventUserLeft:
		deliver(msg, r.UserLeft)

	case EventDoctorIsLive:
		deliver(msg, r.DoctorLive)

	case EventReceiveNotification:
		deliver(msg, r.Notification)

	case EventAcceptNotification:
		deliver(msg, r.Accepted)

	default:
		slog.Warn("dropping unexpected signaling event", "event", msg.Event)
	}
}

// deliver decodes the payload and forwards it, dropping the message if
// the consumer is not keeping up. Presence and notification fanout is
// best-effort by contract.
func deliver[T any](msg *Message, ch chan *T) {
	var payload T
	if err := msg.DecodePayload(&payload); err != nil {
		slog.Warn("dropping malformed signaling payload", "event", msg.Event, "err", err)
		return
	}

	select {
	case ch <- &payload:
	default:
		slog.Warn("signaling consumer lagging, dropping event", "event", msg.Event)
	}
}
