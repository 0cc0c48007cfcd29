package transport

import (
	"errors"
	"fmt"
)

// ErrFrameFormat is returned for messages with fewer than three frames.
var ErrFrameFormat = errors.New("transport: malformed multipart message")

// InboundEnvelope is a request as received on the ROUTER socket.
// Identity and Delimiter are opaque and echoed back verbatim.
type InboundEnvelope struct {
	Identity  []byte
	Delimiter []byte
	Payload   []byte
}

// OutboundEnvelope is a reply addressed to one peer.
type OutboundEnvelope struct {
	Identity  []byte
	Delimiter []byte
	Payload   []byte
}

// DecodeFrames splits a ROUTER message. Frames are read from the end: the
// last is the payload, the one before it the delimiter and the one before
// that the identity. Leading extra frames are ignored.
func DecodeFrames(frames [][]byte) (InboundEnvelope, error) {
	n := len(frames)
	if n < 3 {
		return InboundEnvelope{}, fmt.Errorf("%w: got %d frames, want 3", ErrFrameFormat, n)
	}
	return InboundEnvelope{
		Identity:  frames[n-3],
		Delimiter: frames[n-2],
		Payload:   frames[n-1],
	}, nil
}

// Reply addresses payload to the sender of the envelope.
func (e InboundEnvelope) Reply(payload []byte) OutboundEnvelope {
	return OutboundEnvelope{
		Identity:  e.Identity,
		Delimiter: e.Delimiter,
		Payload:   payload,
	}
}

// Frames returns the wire frames in order: identity, delimiter, payload.
func (e OutboundEnvelope) Frames() [][]byte {
	return [][]byte{e.Identity, e.Delimiter, e.Payload}
}

// size is the number of bytes the envelope holds.
func (e OutboundEnvelope) size() int {
	return len(e.Identity) + len(e.Delimiter) + len(e.Payload)
}
