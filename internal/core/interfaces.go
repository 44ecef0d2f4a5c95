package core

import (
	"encoding/json"
	"errors"
	"time"
)

// Frame is an encoded outbound payload, ready for the transport.
type Frame []byte

// ConnID identifies one live transport session. An identity may own several.
type ConnID string

var (
	ErrBackpressure = errors.New("backpressure")
	ErrSinkClosed   = errors.New("sink closed")
)

// PushSink abstracts the outbound half of a transport connection.
// Owned by the adapter; the adapter must Close() it. TrySend must never
// block: a full buffer is reported as ErrBackpressure.
type PushSink interface {
	TrySend(Frame) error
	Close()
}

// Outbound frame types pushed to clients.
const (
	FrameWelcome      = "welcome"
	FrameNotification = "notification"
	FrameDM           = "dm"
	FrameChannel      = "channel"
	FrameAnnouncement = "announcement"
	FramePresence     = "presence"
	FrameChannelCount = "channel_count"
	FrameJoined       = "joined"
	FrameLeft         = "left"
	FramePong         = "pong"
	FrameError        = "error"
)

// Envelope is the wire shape of every push: a tagged payload plus the
// server timestamp at which it was dispatched.
type Envelope struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	TS      time.Time `json:"ts"`
}

func NewEnvelope(frameType string, payload any, at time.Time) Envelope {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Envelope{Type: frameType, Payload: payload, TS: at}
}

func (e Envelope) Encode() (Frame, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
