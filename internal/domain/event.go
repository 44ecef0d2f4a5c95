package domain

import "time"

// Body is the fully-resolved payload of an event. The push core never
// inspects it; producers resolve all domain data before publishing.
type Body map[string]any

// Event is the closed set of things the dispatcher knows how to route.
// The marker method seals the set to this package, so routing can
// type-switch exhaustively over every variant.
type Event interface {
	At() time.Time
	isEvent()
}

// NotifyIdentity targets the personal notification channel of one user.
type NotifyIdentity struct {
	Target UserID
	Body   Body
	TS     time.Time
}

// MessageIdentity is a point-to-point direct message, addressed to the
// recipient's mailbox channel. No ack, no persistence.
type MessageIdentity struct {
	From   UserID
	Target UserID
	Body   Body
	TS     time.Time
}

// BroadcastChannel fans out to the current roster of a named channel.
type BroadcastChannel struct {
	Channel ChannelName
	Body    Body
	TS      time.Time
}

// BroadcastRole fans out to every connection whose identity holds the role.
type BroadcastRole struct {
	Role Role
	Body Body
	TS   time.Time
}

// BroadcastAll fans out to every live connection.
type BroadcastAll struct {
	Body Body
	TS   time.Time
}

func (e NotifyIdentity) At() time.Time   { return e.TS }
func (e MessageIdentity) At() time.Time  { return e.TS }
func (e BroadcastChannel) At() time.Time { return e.TS }
func (e BroadcastRole) At() time.Time    { return e.TS }
func (e BroadcastAll) At() time.Time     { return e.TS }

func (NotifyIdentity) isEvent()   {}
func (MessageIdentity) isEvent()  {}
func (BroadcastChannel) isEvent() {}
func (BroadcastRole) isEvent()    {}
func (BroadcastAll) isEvent()     {}

func NewNotify(target UserID, body Body) NotifyIdentity {
	return NotifyIdentity{Target: target, Body: body, TS: time.Now().UTC()}
}

func NewMessage(from, target UserID, body Body) MessageIdentity {
	return MessageIdentity{From: from, Target: target, Body: body, TS: time.Now().UTC()}
}

func NewBroadcast(ch ChannelName, body Body) BroadcastChannel {
	return BroadcastChannel{Channel: ch, Body: body, TS: time.Now().UTC()}
}

func NewRoleBroadcast(role Role, body Body) BroadcastRole {
	return BroadcastRole{Role: role, Body: body, TS: time.Now().UTC()}
}

func NewGlobalBroadcast(body Body) BroadcastAll {
	return BroadcastAll{Body: body, TS: time.Now().UTC()}
}
