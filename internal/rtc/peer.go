package rtc

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mehari-dev/cliniccall/internal/signaling"
	"github.com/pion/webrtc/v4"
)

// Emitter sends named signaling events. Satisfied by *signaling.Client.
type Emitter interface {
	Emit(event string, payload any) error
}

// TrackHandler observes remote tracks as they arrive.
type TrackHandler func(participant string, track *webrtc.TrackRemote)

// ConnectionHandler observes freshly created peer connections before any
// negotiation, e.g. to open or await data channels.
type ConnectionHandler func(participant string, pc *webrtc.PeerConnection)

// Manager owns one peer connection per remote participant in a room.
//
// The connection map and the remote stream map are mutated together under
// one lock: for every remote stream entry there is a live connection for
// the same participant, and removing one removes the other.
type Manager struct {
	self  string
	cfg   webrtc.Configuration
	media LocalMedia
	sig   Emitter

	onTrack TrackHandler
	onConn  ConnectionHandler

	mu        sync.Mutex
	conns     map[string]*webrtc.PeerConnection
	streams   map[string][]*webrtc.TrackRemote
	pending   map[string][]webrtc.ICECandidateInit
	remoteSet map[string]bool
}

// NewManager creates a manager for one room session. The local stream
// must already be acquired; a nil stream is a programming error.
func NewManager(self string, media LocalMedia, cfg webrtc.Configuration, sig Emitter) (*Manager, error) {
	if media == nil {
		return nil, newError("new manager", "", ErrNoLocalMedia)
	}

	return &Manager{
		self:      self,
		cfg:       cfg,
		media:     media,
		sig:       sig,
		conns:     make(map[string]*webrtc.PeerConnection),
		streams:   make(map[string][]*webrtc.TrackRemote),
		pending:   make(map[string][]webrtc.ICECandidateInit),
		remoteSet: make(map[string]bool),
	}, nil
}

// SetTrackHandler registers an observer for incoming remote tracks.
// Must be called before the first Create.
func (m *Manager) SetTrackHandler(h TrackHandler) {
	m.onTrack = h
}

// SetConnectionHandler registers an observer for new peer connections.
// Must be called before the first Create.
func (m *Manager) SetConnectionHandler(h ConnectionHandler) {
	m.onConn = h
}

// Create constructs the peer connection for a participant, attaches every
// local track, and wires ICE/track callbacks. Creating a connection for a
// participant that already has one disposes the old connection first.
func (m *Manager) Create(participant string) error {
	pc, err := webrtc.NewPeerConnection(m.cfg)
	if err != nil {
		return newError("create peer connection", participant, err)
	}

	for _, track := range m.media.Tracks() {
		if _, err := pc.AddTrack(track); err != nil {
			pc.Close()
			return newError("attach local track", participant, err)
		}
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		m.mu.Lock()
		// Ignore tracks from a connection that was replaced or closed.
		if m.conns[participant] == pc {
			m.streams[participant] = append(m.streams[participant], track)
		}
		m.mu.Unlock()

		if m.onTrack != nil {
			m.onTrack(participant, track)
		}
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		err := m.sig.Emit(signaling.EventICECandidate, signaling.CandidatePayload{
			From:      m.self,
			To:        participant,
			Candidate: c.ToJSON(),
		})
		if err != nil {
			slog.Warn("emit ice candidate", "participant", participant, "err", err)
		}
	})

	m.mu.Lock()
	if old, ok := m.conns[participant]; ok {
		old.Close()
		delete(m.streams, participant)
		// Candidates queued for the old negotiation must not flush into
		// the new connection.
		delete(m.pending, participant)
	}
	m.conns[participant] = pc
	m.remoteSet[participant] = false
	m.mu.Unlock()

	if m.onConn != nil {
		m.onConn(participant, pc)
	}

	return nil
}

// CreateOffer generates and installs the local offer for a participant.
func (m *Manager) CreateOffer(participant string) (webrtc.SessionDescription, error) {
	pc, ok := m.connection(participant)
	if !ok {
		return webrtc.SessionDescription{}, newError("create offer", participant, ErrNoConnection)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, newError("create offer", participant, err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, newError("set local description", participant, err)
	}

	return *pc.LocalDescription(), nil
}

// ApplyRemoteOffer installs a remote offer (creating the connection if
// absent), flushes any ICE candidates that arrived early, and returns the
// answer to send back.
func (m *Manager) ApplyRemoteOffer(participant string, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if _, ok := m.connection(participant); !ok {
		if err := m.Create(participant); err != nil {
			return webrtc.SessionDescription{}, err
		}
	}
	pc, _ := m.connection(participant)

	if err := pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, newError("set remote offer", participant, fmt.Errorf("%w: %v", ErrNegotiation, err))
	}
	m.flushPending(participant, pc)

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, newError("create answer", participant, err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, newError("set local description", participant, err)
	}

	return *pc.LocalDescription(), nil
}

// ApplyRemoteAnswer installs a remote answer and flushes queued
// candidates. Answers for unknown participants are reported, not fatal.
func (m *Manager) ApplyRemoteAnswer(participant string, answer webrtc.SessionDescription) error {
	pc, ok := m.connection(participant)
	if !ok {
		return newError("apply answer", participant, ErrNoConnection)
	}

	if err := pc.SetRemoteDescription(answer); err != nil {
		return newError("set remote answer", participant, fmt.Errorf("%w: %v", ErrNegotiation, err))
	}
	m.flushPending(participant, pc)

	return nil
}

// AddRemoteCandidate applies an ICE candidate, or queues it when the
// remote description has not landed yet. The relay gives no ordering
// guarantee between candidates and descriptions, so early candidates are
// buffered per participant and applied on flush rather than dropped.
func (m *Manager) AddRemoteCandidate(participant string, candidate webrtc.ICECandidateInit) error {
	m.mu.Lock()
	pc, ok := m.conns[participant]
	if !ok || !m.remoteSet[participant] {
		m.pending[participant] = append(m.pending[participant], candidate)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := pc.AddICECandidate(candidate); err != nil {
		return newError("add ice candidate", participant, err)
	}
	return nil
}

// flushPending applies buffered candidates after a remote description is
// installed.
func (m *Manager) flushPending(participant string, pc *webrtc.PeerConnection) {
	m.mu.Lock()
	queued := m.pending[participant]
	m.pending[participant] = nil
	m.remoteSet[participant] = true
	m.mu.Unlock()

	for _, candidate := range queued {
		if err := pc.AddICECandidate(candidate); err != nil {
			slog.Warn("apply queued candidate", "participant", participant, "err", err)
		}
	}
}

// Close disposes one participant's connection and its remote streams.
func (m *Manager) Close(participant string) error {
	m.mu.Lock()
	pc, ok := m.conns[participant]
	delete(m.conns, participant)
	delete(m.streams, participant)
	delete(m.pending, participant)
	delete(m.remoteSet, participant)
	m.mu.Unlock()

	if !ok {
		return newError("close connection", participant, ErrNoConnection)
	}
	if err := pc.Close(); err != nil {
		return newError("close connection", participant, err)
	}
	return nil
}

// CloseAll disposes every tracked connection; used on room exit.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]*webrtc.PeerConnection)
	m.streams = make(map[string][]*webrtc.TrackRemote)
	m.pending = make(map[string][]webrtc.ICECandidateInit)
	m.remoteSet = make(map[string]bool)
	m.mu.Unlock()

	for participant, pc := range conns {
		if err := pc.Close(); err != nil {
			slog.Warn("close peer connection", "participant", participant, "err", err)
		}
	}
}

// Count returns the number of tracked peer connections.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Participants lists the participants with a tracked connection.
func (m *Manager) Participants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	return ids
}

// RemoteTracks returns the received tracks for a participant.
func (m *Manager) RemoteTracks(participant string) []*webrtc.TrackRemote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams[participant]
}

// HasStream reports whether a participant has published media.
func (m *Manager) HasStream(participant string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams[participant]) > 0
}

// Connection exposes the raw connection, e.g. for the in-call chat
// channel. Callers must not close it directly.
func (m *Manager) Connection(participant string) (*webrtc.PeerConnection, bool) {
	return m.connection(participant)
}

func (m *Manager) connection(participant string) (*webrtc.PeerConnection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.conns[participant]
	return pc, ok
}
