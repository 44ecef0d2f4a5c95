package app

import "github.com/campuskit/beacon/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	Disconnect
)

// Policy decides what happens to a connection whose send buffer is full
// during fan-out. Dispatch itself never blocks; the policy only reacts
// after the fact.
type Policy interface {
	OnBackpressure(conn *core.Conn) BackpressureAction
}

// DisconnectSlowPolicy kicks connections that cannot keep up. A stalled
// tab reconnects and rebuilds its state; letting it lag silently just
// hides the problem.
type DisconnectSlowPolicy struct{}

func (DisconnectSlowPolicy) OnBackpressure(conn *core.Conn) BackpressureAction {
	return Disconnect
}

// DropFramePolicy sheds the frame and keeps the connection.
type DropFramePolicy struct{}

func (DropFramePolicy) OnBackpressure(conn *core.Conn) BackpressureAction {
	return DropFrame
}
