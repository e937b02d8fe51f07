package room

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mehari-dev/cliniccall/internal/rtc"
	"github.com/mehari-dev/cliniccall/internal/signaling"
	"github.com/pion/webrtc/v4"
)

// State of the consultation session.
type State int

const (
	StateIdle State = iota
	StateJoining
	StateActive
	StateLeaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateLeaving:
		return "leaving"
	}
	return "unknown"
}

// Identity is the local participant as known to the signaling relay.
type Identity struct {
	UserID string
	Role   string
}

// Emitter sends named signaling events.
type Emitter interface {
	Emit(event string, payload any) error
}

// PeerSession is the per-room peer connection manager. Implemented by
// *rtc.Manager; faked in tests.
type PeerSession interface {
	Create(participant string) error
	CreateOffer(participant string) (webrtc.SessionDescription, error)
	ApplyRemoteOffer(participant string, offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	ApplyRemoteAnswer(participant string, answer webrtc.SessionDescription) error
	AddRemoteCandidate(participant string, candidate webrtc.ICECandidateInit) error
	Close(participant string) error
	CloseAll()
	Count() int
}

// PeerFactory builds the peer session once local media is acquired.
type PeerFactory func(media rtc.LocalMedia) (PeerSession, error)

// Controller drives one room session through
// Idle -> Joining -> Active -> Leaving -> Idle.
//
// All signaling events are handled on the Run loop goroutine; Join and
// Leave may be called from any goroutine. Async completions carry the
// epoch they started under and become no-ops once it is stale.
type Controller struct {
	self     Identity
	sig      Emitter
	capture  rtc.CaptureFunc
	newPeers PeerFactory

	mu        sync.Mutex
	state     State
	roomID    string
	epoch     uint64
	announced bool
	media     rtc.LocalMedia
	peers     PeerSession
	known     map[string]bool
	quit      chan struct{}
	done      chan error
}

// NewController wires a controller for one local identity.
func NewController(self Identity, sig Emitter, capture rtc.CaptureFunc, newPeers PeerFactory) *Controller {
	return &Controller{
		self:     self,
		sig:      sig,
		capture:  capture,
		newPeers: newPeers,
		known:    make(map[string]bool),
		done:     make(chan error, 1),
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RoomID returns the room of the current session, empty when idle.
func (c *Controller) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Peers returns the peer session of the current room, nil when idle.
func (c *Controller) Peers() PeerSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peers
}

// Done delivers the error that ended the session, if it ended abnormally.
func (c *Controller) Done() <-chan error {
	return c.done
}

// Join acquires local media and announces the session to the relay.
// Media acquisition happens first: if the devices are unavailable no
// signaling is emitted and the controller returns to Idle.
func (c *Controller) Join(roomID string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		defer c.mu.Unlock()
		return fmt.Errorf("join %s: session is %s", roomID, c.state)
	}
	c.state = StateJoining
	c.roomID = roomID
	c.epoch++
	epoch := c.epoch
	c.quit = make(chan struct{})
	c.done = make(chan error, 1)
	c.mu.Unlock()

	media, err := c.capture()
	if err != nil {
		c.reset(epoch)
		return err
	}

	c.mu.Lock()
	if c.epoch != epoch || c.state != StateJoining {
		// Left while the permission prompt was pending.
		c.mu.Unlock()
		media.Stop()
		return fmt.Errorf("join %s: session cancelled", roomID)
	}
	peers, err := c.newPeers(media)
	if err != nil {
		c.mu.Unlock()
		media.Stop()
		c.reset(epoch)
		return err
	}
	c.media = media
	c.peers = peers
	c.mu.Unlock()

	err = c.sig.Emit(signaling.EventJoinRoom, signaling.JoinRoomPayload{
		RoomID: roomID,
		UserID: c.self.UserID,
		Role:   c.self.Role,
	})
	if err != nil {
		c.fail(epoch, err)
		return err
	}

	c.mu.Lock()
	c.announced = true
	c.mu.Unlock()
	return nil
}

// Run consumes signaling events until the session ends or the relay
// drops. Call after a successful Join, in its own goroutine.
func (c *Controller) Run(r *signaling.Router) {
	c.mu.Lock()
	epoch := c.epoch
	quit := c.quit
	c.mu.Unlock()

	for {
		select {
		case p := <-r.Roster:
			c.handleRoster(epoch, p)
		case p := <-r.Offer:
			c.handleOffer(epoch, p)
		case p := <-r.Answer:
			c.handleAnswer(epoch, p)
		case p := <-r.Candidate:
			c.handleCandidate(epoch, p)
		case p := <-r.UserLeft:
			c.handleUserLeft(epoch, p)
		case <-r.Disconnected:
			c.fail(epoch, rtc.ErrSignalingLost)
			return
		case <-quit:
			return
		}
	}
}

// Leave tears the session down. Fixed order contract: emit leave-room,
// stop local tracks, close all peer connections, detach handlers.
// Leave is idempotent; a second call observes Idle and returns.
func (c *Controller) Leave() error {
	c.mu.Lock()
	if c.state == StateIdle || c.state == StateLeaving {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLeaving
	c.epoch++
	roomID := c.roomID
	announced := c.announced
	media := c.media
	peers := c.peers
	quit := c.quit
	c.roomID = ""
	c.announced = false
	c.media = nil
	c.peers = nil
	c.known = make(map[string]bool)
	c.quit = nil
	c.mu.Unlock()

	if announced {
		err := c.sig.Emit(signaling.EventLeaveRoom, signaling.LeaveRoomPayload{
			RoomID: roomID,
			UserID: c.self.UserID,
		})
		if err != nil {
			slog.Warn("emit leave-room", "room", roomID, "err", err)
		}
	}
	if media != nil {
		media.Stop()
	}
	if peers != nil {
		peers.CloseAll()
	}
	if quit != nil {
		close(quit)
	}

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
	return nil
}

// handleRoster reacts to the all-users event: first roster activates the
// session; every unseen participant gets a connection, and the side whose
// identifier sorts lower creates the offer. Rosters are idempotent sets.
func (c *Controller) handleRoster(epoch uint64, p *signaling.RosterPayload) {
	c.mu.Lock()
	if c.epoch != epoch || (c.state != StateJoining && c.state != StateActive) {
		c.mu.Unlock()
		return
	}
	if p.RoomID != "" && p.RoomID != c.roomID {
		c.mu.Unlock()
		return
	}
	if c.state == StateJoining {
		c.state = StateActive
	}
	peers := c.peers
	var fresh []string
	for _, u := range p.Users {
		if u.UserID == c.self.UserID || c.known[u.UserID] {
			continue
		}
		c.known[u.UserID] = true
		fresh = append(fresh, u.UserID)
	}
	c.mu.Unlock()

	for _, id := range fresh {
		if err := peers.Create(id); err != nil {
			slog.Warn("create peer", "participant", id, "err", err)
			c.forget(id)
			continue
		}
		if !c.sessionCurrent(epoch) {
			// Leave finished while the connection was being built, so its
			// CloseAll could not have seen this one.
			peers.Close(id)
			return
		}
		if !c.initiates(id) {
			continue // the lower identifier offers; we wait for theirs
		}
		offer, err := peers.CreateOffer(id)
		if err != nil {
			slog.Warn("create offer", "participant", id, "err", err)
			peers.Close(id)
			c.forget(id)
			continue
		}
		err = c.sig.Emit(signaling.EventOffer, signaling.SDPPayload{
			From: c.self.UserID,
			To:   id,
			SDP:  offer,
		})
		if err != nil {
			slog.Warn("emit offer", "participant", id, "err", err)
			peers.Close(id)
			c.forget(id)
		}
	}
}

func (c *Controller) handleOffer(epoch uint64, p *signaling.SDPPayload) {
	peers, ok := c.activePeers(epoch)
	if !ok || p.To != c.self.UserID {
		return
	}

	c.remember(p.From)
	answer, err := peers.ApplyRemoteOffer(p.From, p.SDP)
	if err != nil {
		slog.Warn("apply remote offer", "participant", p.From, "err", err)
		peers.Close(p.From)
		c.forget(p.From)
		return
	}
	if !c.sessionCurrent(epoch) {
		peers.Close(p.From)
		c.forget(p.From)
		return
	}
	err = c.sig.Emit(signaling.EventAnswer, signaling.SDPPayload{
		From: c.self.UserID,
		To:   p.From,
		SDP:  answer,
	})
	if err != nil {
		slog.Warn("emit answer", "participant", p.From, "err", err)
	}
}

func (c *Controller) handleAnswer(epoch uint64, p *signaling.SDPPayload) {
	peers, ok := c.activePeers(epoch)
	if !ok || p.To != c.self.UserID {
		return
	}

	if err := peers.ApplyRemoteAnswer(p.From, p.SDP); err != nil {
		// An answer for an unknown participant is reported and dropped;
		// a rejected description closes only that connection.
		slog.Warn("apply remote answer", "participant", p.From, "err", err)
		if !isMissingConnection(err) {
			peers.Close(p.From)
			c.forget(p.From)
		}
	}
}

func (c *Controller) handleCandidate(epoch uint64, p *signaling.CandidatePayload) {
	peers, ok := c.activePeers(epoch)
	if !ok || p.To != c.self.UserID {
		return
	}

	if err := peers.AddRemoteCandidate(p.From, p.Candidate); err != nil {
		slog.Warn("add remote candidate", "participant", p.From, "err", err)
	}
}

func (c *Controller) handleUserLeft(epoch uint64, p *signaling.UserLeftPayload) {
	peers, ok := c.activePeers(epoch)
	if !ok {
		return
	}

	c.forget(p.UserID)
	if err := peers.Close(p.UserID); err != nil {
		slog.Debug("close on user-left", "participant", p.UserID, "err", err)
	}
}

// fail handles a whole-room failure: full cleanup, no leave-room emission
// (the relay is gone or rejected us), error surfaced for an explicit
// rejoin.
func (c *Controller) fail(epoch uint64, cause error) {
	c.mu.Lock()
	if c.epoch != epoch || c.state == StateIdle || c.state == StateLeaving {
		c.mu.Unlock()
		return
	}
	c.state = StateLeaving
	c.epoch++
	media := c.media
	peers := c.peers
	c.roomID = ""
	c.announced = false
	c.media = nil
	c.peers = nil
	c.known = make(map[string]bool)
	c.quit = nil
	done := c.done
	c.mu.Unlock()

	if media != nil {
		media.Stop()
	}
	if peers != nil {
		peers.CloseAll()
	}

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()

	select {
	case done <- cause:
	default:
	}
}

// sessionCurrent reports whether the epoch still identifies the live
// session. Handlers re-check it after any call that can register a new
// peer connection: if Leave won the race, its CloseAll ran too early to
// see that connection, so the handler must dispose of it itself.
func (c *Controller) sessionCurrent(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch
}

// initiates applies the glare tie-break: the participant whose identifier
// sorts lower lexicographically creates the offer.
func (c *Controller) initiates(participant string) bool {
	return c.self.UserID < participant
}

// activePeers returns the peer session when the event still belongs to
// the live session.
func (c *Controller) activePeers(epoch uint64) (PeerSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.state != StateActive || c.peers == nil {
		return nil, false
	}
	return c.peers, true
}

func (c *Controller) remember(participant string) {
	c.mu.Lock()
	c.known[participant] = true
	c.mu.Unlock()
}

func (c *Controller) forget(participant string) {
	c.mu.Lock()
	delete(c.known, participant)
	c.mu.Unlock()
}

// reset returns to Idle after a failed join attempt, provided no newer
// session has started meanwhile.
func (c *Controller) reset(epoch uint64) {
	c.mu.Lock()
	if c.epoch == epoch {
		c.state = StateIdle
		c.roomID = ""
	}
	c.mu.Unlock()
}

func isMissingConnection(err error) bool {
	return errors.Is(err, rtc.ErrNoConnection)
}
