package rtc

import (
	"fmt"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"     // registers the camera adapter
	_ "github.com/pion/mediadevices/pkg/driver/microphone" // registers the microphone adapter
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"
)

// LocalMedia is the session's single local capture stream. It is acquired
// once at room entry, attached to every peer connection as a read-only
// track source, and stopped exactly once on leave by the controller.
type LocalMedia interface {
	Tracks() []webrtc.TrackLocal
	Stop() error
}

// CaptureFunc acquires local media. Capture is the production
// implementation; tests substitute static tracks.
type CaptureFunc func() (LocalMedia, error)

const (
	captureWidth     = 640
	captureHeight    = 480
	videoBitRate     = 500_000
	captureFrameRate = 30
)

// Capture requests combined camera and microphone access. Failure maps to
// ErrMediaUnavailable so callers can surface a permission/hardware error
// without emitting any signaling.
func Capture() (LocalMedia, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, fmt.Errorf("init VP8 encoder: %w", err)
	}
	vpxParams.BitRate = videoBitRate

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, fmt.Errorf("init Opus encoder: %w", err)
	}

	codecSelector := mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)

	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {
			c.FrameFormat = prop.FrameFormat(frame.FormatI420)
			c.Width = prop.Int(captureWidth)
			c.Height = prop.Int(captureHeight)
			c.FrameRate = prop.Float(captureFrameRate)
		},
		Audio: func(c *mediadevices.MediaTrackConstraints) {},
		Codec: codecSelector,
	})
	if err != nil {
		return nil, newError("acquire media", "", fmt.Errorf("%w: %v", ErrMediaUnavailable, err))
	}

	return &deviceMedia{stream: stream}, nil
}

// deviceMedia adapts a mediadevices stream to LocalMedia.
type deviceMedia struct {
	stream mediadevices.MediaStream
}

func (m *deviceMedia) Tracks() []webrtc.TrackLocal {
	src := m.stream.GetTracks()
	tracks := make([]webrtc.TrackLocal, 0, len(src))
	for _, t := range src {
		tracks = append(tracks, t)
	}
	return tracks
}

func (m *deviceMedia) Stop() error {
	for _, t := range m.stream.GetTracks() {
		t.Close()
	}
	return nil
}
