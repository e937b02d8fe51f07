// Package chat implements the in-call text channel between consultation
// peers, carried over a WebRTC data channel with msgpack framing.
package chat

import (
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// Label of the data channel used for chat.
	Label = "chat"

	typeChat = "chat"
)

// Message is one chat line exchanged during a consultation.
type Message struct {
	Sender string    `msgpack:"sender"`
	Role   string    `msgpack:"role"`
	Text   string    `msgpack:"text"`
	SentAt time.Time `msgpack:"sentAt"`
}

// Envelope frames all chat channel traffic.
type Envelope struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// NewEnvelope creates an Envelope with the given type and payload
func NewEnvelope(t string, payload any) (Envelope, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Type:    t,
		Payload: b,
	}, nil
}

// DecodePayload decodes the envelope payload into the provided struct
func (e Envelope) DecodePayload(v any) error {
	return msgpack.Unmarshal(e.Payload, v)
}

// Handler receives decoded chat messages.
type Handler func(Message)

// Channel wraps the chat data channel of one peer connection.
type Channel struct {
	sender string
	role   string
	dc     *webrtc.DataChannel
}

// Open creates the chat channel on the offering side. The answering side
// receives it via Attach.
func Open(pc *webrtc.PeerConnection, sender, role string, handler Handler) (*Channel, error) {
	ordered := true
	dc, err := pc.CreateDataChannel(Label, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return nil, err
	}

	ch := &Channel{sender: sender, role: role, dc: dc}
	ch.receive(handler)
	return ch, nil
}

// Attach waits for the remote side to open the chat channel and hands the
// wrapped channel to ready. Other data channels are ignored.
func Attach(pc *webrtc.PeerConnection, sender, role string, handler Handler, ready func(*Channel)) {
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != Label {
			return
		}
		ch := &Channel{sender: sender, role: role, dc: dc}
		ch.receive(handler)
		if ready != nil {
			ready(ch)
		}
	})
}

// Send transmits one chat line to the remote peer.
func (c *Channel) Send(text string) error {
	env, err := NewEnvelope(typeChat, Message{
		Sender: c.sender,
		Role:   c.role,
		Text:   text,
		SentAt: time.Now(),
	})
	if err != nil {
		return err
	}

	b, err := msgpack.Marshal(env)
	if err != nil {
		return err
	}
	return c.dc.Send(b)
}

// Close closes the underlying data channel.
func (c *Channel) Close() error {
	return c.dc.Close()
}

func (c *Channel) receive(handler Handler) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var env Envelope
		if err := msgpack.Unmarshal(msg.Data, &env); err != nil {
			return
		}
		if env.Type != typeChat {
			return
		}
		var m Message
		if err := env.DecodePayload(&m); err != nil {
			return
		}
		if handler != nil {
			handler(m)
		}
	})
}
