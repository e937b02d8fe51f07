package rtc

import (
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticMedia stands in for the camera/microphone stream.
type staticMedia struct {
	tracks  []webrtc.TrackLocal
	stopped bool
}

func newStaticMedia(t *testing.T) *staticMedia {
	t.Helper()
	video, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "local")
	require.NoError(t, err)
	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "local")
	require.NoError(t, err)
	return &staticMedia{tracks: []webrtc.TrackLocal{video, audio}}
}

func (m *staticMedia) Tracks() []webrtc.TrackLocal { return m.tracks }
func (m *staticMedia) Stop() error                 { m.stopped = true; return nil }

// recordingEmitter captures emitted signaling events. ICE gathering
// emits from pion goroutines, so access is locked.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) Emit(event string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func newTestManager(t *testing.T, self string) *Manager {
	t.Helper()
	m, err := NewManager(self, newStaticMedia(t), webrtc.Configuration{}, &recordingEmitter{})
	require.NoError(t, err)
	t.Cleanup(m.CloseAll)
	return m
}

func TestNewManagerRequiresMedia(t *testing.T) {
	_, err := NewManager("alice", nil, webrtc.Configuration{}, &recordingEmitter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoLocalMedia)
}

func TestOfferAnswerNegotiation(t *testing.T) {
	alice := newTestManager(t, "alice")
	bob := newTestManager(t, "bob")

	require.NoError(t, alice.Create("bob"))
	offer, err := alice.CreateOffer("bob")
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)

	// Bob has no connection yet; applying the offer creates one.
	answer, err := bob.ApplyRemoteOffer("alice", offer)
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.Equal(t, 1, bob.Count())

	require.NoError(t, alice.ApplyRemoteAnswer("bob", answer))
	assert.Equal(t, 1, alice.Count())
	assert.Equal(t, []string{"bob"}, alice.Participants())
}

func TestCreateOfferWithoutConnection(t *testing.T) {
	alice := newTestManager(t, "alice")

	_, err := alice.CreateOffer("bob")
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestApplyRemoteAnswerWithoutConnection(t *testing.T) {
	alice := newTestManager(t, "alice")

	err := alice.ApplyRemoteAnswer("bob", webrtc.SessionDescription{})
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestCandidateBeforeDescriptionIsQueued(t *testing.T) {
	alice := newTestManager(t, "alice")
	bob := newTestManager(t, "bob")

	candidate := webrtc.ICECandidateInit{
		Candidate: "candidate:1 1 udp 2130706431 127.0.0.1 54321 typ host",
	}

	// No connection at all: queued, not an error.
	require.NoError(t, bob.AddRemoteCandidate("alice", candidate))

	// Connection exists but remote description not yet set: still queued.
	require.NoError(t, alice.Create("bob"))
	require.NoError(t, alice.AddRemoteCandidate("bob", candidate))

	offer, err := alice.CreateOffer("bob")
	require.NoError(t, err)

	// The queued candidate flushes once the description lands.
	answer, err := bob.ApplyRemoteOffer("alice", offer)
	require.NoError(t, err)
	require.NoError(t, alice.ApplyRemoteAnswer("bob", answer))

	// Late candidates now apply directly.
	require.NoError(t, alice.AddRemoteCandidate("bob", candidate))
}

func TestDuplicateCreateReplacesConnection(t *testing.T) {
	alice := newTestManager(t, "alice")

	require.NoError(t, alice.Create("bob"))
	first, ok := alice.Connection("bob")
	require.True(t, ok)

	require.NoError(t, alice.Create("bob"))
	second, ok := alice.Connection("bob")
	require.True(t, ok)

	assert.Equal(t, 1, alice.Count())
	assert.NotSame(t, first, second)
}

func TestDuplicateCreateDropsQueuedCandidates(t *testing.T) {
	alice := newTestManager(t, "alice")

	require.NoError(t, alice.Create("bob"))
	// No remote description yet, so the candidate is queued.
	require.NoError(t, alice.AddRemoteCandidate("bob", webrtc.ICECandidateInit{
		Candidate: "candidate:1 1 udp 2130706431 127.0.0.1 54321 typ host",
	}))

	// A fresh connection starts a fresh negotiation; candidates queued for
	// the old one must not survive into it.
	require.NoError(t, alice.Create("bob"))

	alice.mu.Lock()
	queued := len(alice.pending["bob"])
	alice.mu.Unlock()
	assert.Zero(t, queued)
}

func TestApplyRemoteOfferReportsNegotiationDetail(t *testing.T) {
	alice := newTestManager(t, "alice")

	_, err := alice.ApplyRemoteOffer("bob", webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer, SDP: "not an sdp",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegotiation)
	// The underlying parser error survives wrapping.
	assert.NotEqual(t, newError("set remote offer", "bob", ErrNegotiation).Error(), err.Error())
}

func TestApplyRemoteAnswerReportsNegotiationDetail(t *testing.T) {
	alice := newTestManager(t, "alice")
	bob := newTestManager(t, "bob")

	require.NoError(t, alice.Create("bob"))
	offer, err := alice.CreateOffer("bob")
	require.NoError(t, err)
	_, err = bob.ApplyRemoteOffer("alice", offer)
	require.NoError(t, err)

	err = alice.ApplyRemoteAnswer("bob", webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer, SDP: "not an sdp",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegotiation)
	assert.NotEqual(t, newError("set remote answer", "bob", ErrNegotiation).Error(), err.Error())
}

func TestCloseRemovesConnectionAndStreams(t *testing.T) {
	alice := newTestManager(t, "alice")

	require.NoError(t, alice.Create("bob"))
	require.NoError(t, alice.Close("bob"))

	assert.Equal(t, 0, alice.Count())
	assert.Empty(t, alice.RemoteTracks("bob"))
	assert.False(t, alice.HasStream("bob"))

	// Closing again reports the missing connection.
	assert.ErrorIs(t, alice.Close("bob"), ErrNoConnection)
}

func TestCloseAll(t *testing.T) {
	alice := newTestManager(t, "alice")

	require.NoError(t, alice.Create("bob"))
	require.NoError(t, alice.Create("carol"))
	require.Equal(t, 2, alice.Count())

	alice.CloseAll()
	assert.Equal(t, 0, alice.Count())
	assert.Empty(t, alice.Participants())
}
