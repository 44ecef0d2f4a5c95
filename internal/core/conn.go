package core

import (
	"sync/atomic"

	"github.com/campuskit/beacon/internal/domain"
)

// Conn binds an authenticated identity to its transport endpoint.
// Born at a successful handshake, dead at transport close; the closed
// flag is the Open->Closed edge of the connection state machine and
// flips exactly once.
type Conn struct {
	ID       ConnID
	Identity domain.Identity

	sink   PushSink
	closed atomic.Bool
}

func NewConn(id ConnID, ident domain.Identity, sink PushSink) *Conn {
	return &Conn{ID: id, Identity: ident, sink: sink}
}

// MarkClosed flips the state machine to Closed. It returns true only to
// the caller that performed the transition, so cleanup runs once no
// matter how many times transport teardown fires.
func (c *Conn) MarkClosed() bool {
	return c.closed.CompareAndSwap(false, true)
}

func (c *Conn) Closed() bool { return c.closed.Load() }

// TrySend pushes one frame without blocking.
func (c *Conn) TrySend(f Frame) error {
	if c.closed.Load() {
		return ErrSinkClosed
	}
	return c.sink.TrySend(f)
}

// Send encodes and pushes one envelope without blocking.
func (c *Conn) Send(env Envelope) error {
	f, err := env.Encode()
	if err != nil {
		return err
	}
	return c.TrySend(f)
}

// CloseSink releases the transport handle. Safe to call more than once;
// sinks are required to tolerate repeated Close.
func (c *Conn) CloseSink() { c.sink.Close() }
