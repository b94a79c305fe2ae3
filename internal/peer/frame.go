package peer

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame types exchanged on the probe data channel.
const (
	FrameHello = "hello"
	FramePing  = "ping"
	FramePong  = "pong"
)

// Frame represents all probe data channel messages
type Frame struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// Hello introduces each side once the channel opens.
type Hello struct {
	PeerID  string `msgpack:"peerId"`
	Version string `msgpack:"version"`
}

// Ping is echoed back unchanged as a pong.
type Ping struct {
	Seq    uint32 `msgpack:"seq"`
	SentAt int64  `msgpack:"sentAt"` // unix nanoseconds on the sender's clock
}

// RTT is the round trip measured from a pong, using the local clock.
func (p Ping) RTT(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, p.SentAt))
}

// DecodePayload decodes the frame payload into the provided struct
func (f Frame) DecodePayload(v any) error {
	return msgpack.Unmarshal(f.Payload, v)
}

// NewFrame creates a new Frame with the given type and payload
func NewFrame(t string, payload any) (Frame, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}

	return Frame{
		Type:    t,
		Payload: b,
	}, nil
}

// EncodeFrame builds a frame and serializes it for the wire.
func EncodeFrame(t string, payload any) ([]byte, error) {
	f, err := NewFrame(t, payload)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(f)
}

// DecodeFrame parses one data channel message.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := msgpack.Unmarshal(data, &f)
	return f, err
}
