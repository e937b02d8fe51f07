package rtc

import (
	"errors"
	"fmt"
)

var (
	// ErrMediaUnavailable means camera/microphone access failed. Joining a
	// room is aborted before any signaling side effect.
	ErrMediaUnavailable = errors.New("media device unavailable")

	// ErrNoConnection means a signal referenced a participant without a
	// tracked connection. Reported, never fatal.
	ErrNoConnection = errors.New("no connection for participant")

	// ErrNegotiation means a session description was rejected. Only the
	// affected peer connection is closed.
	ErrNegotiation = errors.New("negotiation failed")

	// ErrSignalingLost means the relay connection dropped while a room was
	// active. The whole room is invalid and requires an explicit rejoin.
	ErrSignalingLost = errors.New("signaling connection lost")

	// ErrNoLocalMedia is a programming error: a peer connection was created
	// before the local stream was acquired.
	ErrNoLocalMedia = errors.New("local media not acquired")
)

// Error wraps a peer-level failure with its operation and participant.
type Error struct {
	Op          string
	Participant string
	Err         error
}

func (e *Error) Error() string {
	if e.Participant != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Participant, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, participant string, err error) *Error {
	return &Error{Op: op, Participant: participant, Err: err}
}
