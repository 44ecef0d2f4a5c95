package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/campuskit/beacon/internal/core"
	"github.com/campuskit/beacon/internal/domain"
)

var (
	// ErrChannelNotPermitted covers privileged broadcast actions by
	// non-privileged identities and explicit joins of reserved
	// namespaces. The connection stays open; only an error ack goes back.
	ErrChannelNotPermitted = errors.New("channel not permitted")

	// ErrUnknownConnection marks operations for a connection the hub no
	// longer tracks. Cleanup treats it as a no-op; everything else
	// reports it to the caller.
	ErrUnknownConnection = errors.New("unknown connection")
)

type countPayload struct {
	Channel domain.ChannelName `json:"channel"`
	Members int                `json:"members"`
}

// Hub wires the push core together: authenticator, session registry,
// channel table, presence tracker and dispatcher. It is constructed at
// server start and passed by handle wherever needed; all state dies
// with the process and is rebuilt as clients reconnect.
type Hub struct {
	auth     *Authenticator
	Sessions *core.SessionRegistry
	Channels *core.ChannelTable
	Conns    *core.ConnTable
	Presence *PresenceTracker
	dispatch *Dispatcher
}

func NewHub(auth *Authenticator, policy Policy) *Hub {
	conns := core.NewConnTable()
	channels := core.NewChannelTable()
	dispatch := NewDispatcher(channels, conns, policy)
	h := &Hub{
		auth:     auth,
		Sessions: core.NewSessionRegistry(),
		Channels: channels,
		Conns:    conns,
		Presence: NewPresenceTracker(conns, dispatch),
		dispatch: dispatch,
	}
	h.dispatch.onSlow = h.Disconnect
	return h
}

// Authenticate validates the handshake credential. Fail-closed: a
// rejected credential creates no state anywhere in the hub.
func (h *Hub) Authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	return h.auth.Authenticate(ctx, credential)
}

// Connect admits an authenticated identity with its transport sink. The
// connection lands in the conn table and session registry and is
// auto-joined to its personal notification and mailbox channels; the
// first session of an identity fires the online presence push.
func (h *Hub) Connect(ident domain.Identity, sink core.PushSink) *core.Conn {
	conn := core.NewConn(core.ConnID(uuid.NewString()), ident, sink)
	h.Conns.Add(conn)

	h.Channels.Join(conn.ID, domain.NotifyChannel(ident.UserID))
	h.Channels.Join(conn.ID, domain.InboxChannel(ident.UserID))

	first := h.Sessions.Register(ident.UserID, conn.ID)
	log.Info().Str("module", "app.hub").Str("conn", string(conn.ID)).
		Str("user", string(ident.UserID)).Bool("first_session", first).Msg("connected")
	if first {
		h.Presence.IdentityOnline(ident)
	}
	return conn
}

// Join subscribes the connection to a course channel and tells the
// whole roster the new live member count. Reserved namespaces cannot be
// joined explicitly: personal channels are owned, role/global
// membership is derived from the identity.
func (h *Hub) Join(connID core.ConnID, name domain.ChannelName) error {
	if err := name.Validate(); err != nil {
		return err
	}
	if name.Kind() != domain.ChannelCourse {
		return ErrChannelNotPermitted
	}
	if _, ok := h.Conns.Get(connID); !ok {
		return ErrUnknownConnection
	}
	if h.Channels.Join(connID, name) {
		h.pushCount(name)
	}
	return nil
}

// Leave unsubscribes the connection from a course channel. Idempotent.
func (h *Hub) Leave(connID core.ConnID, name domain.ChannelName) error {
	if name.Kind() != domain.ChannelCourse {
		return ErrChannelNotPermitted
	}
	if h.Channels.Leave(connID, name) {
		h.pushCount(name)
	}
	return nil
}

// SendDirect publishes a direct message to every live session of the
// recipient. Zero sessions means zero deliveries, silently.
func (h *Hub) SendDirect(from, to domain.UserID, body domain.Body) int {
	n, _ := h.Publish(domain.NewMessage(from, to, body))
	return n
}

// Announce is the client-initiated course broadcast. Only privileged
// roles may use it; everyone else gets ErrChannelNotPermitted back on
// their own connection and nothing is dispatched.
func (h *Hub) Announce(conn *core.Conn, name domain.ChannelName, body domain.Body) (int, error) {
	if !conn.Identity.Role.Privileged() {
		return 0, ErrChannelNotPermitted
	}
	if name.Kind() != domain.ChannelCourse {
		return 0, ErrChannelNotPermitted
	}
	return h.Publish(domain.NewBroadcast(name, body))
}

// Publish is the sole entry point for event producers. Dispatch reads
// in-memory rosters only; an unreachable target is not an error.
func (h *Hub) Publish(evt domain.Event) (int, error) {
	return h.dispatch.Dispatch(evt)
}

// Disconnect unwinds one connection: channel membership first (pushing
// fresh member counts of affected course channels to whoever remains),
// then session registration, then the offline presence edge if that was
// the identity's last session. Idempotent; cleanup for an unknown or
// already-closed connection is a logged no-op.
func (h *Hub) Disconnect(connID core.ConnID) {
	conn, ok := h.Conns.Get(connID)
	if !ok {
		log.Debug().Str("module", "app.hub").Str("conn", string(connID)).Msg("cleanup for unknown connection")
		return
	}
	if !conn.MarkClosed() {
		return
	}

	affected := h.Channels.LeaveAll(connID)
	for _, name := range lo.Filter(affected, func(n domain.ChannelName, _ int) bool {
		return n.Kind() == domain.ChannelCourse
	}) {
		h.pushCount(name)
	}

	last := h.Sessions.Unregister(conn.Identity.UserID, connID)
	h.Conns.Remove(connID)
	conn.CloseSink()

	log.Info().Str("module", "app.hub").Str("conn", string(connID)).
		Str("user", string(conn.Identity.UserID)).Bool("last_session", last).Msg("disconnected")
	if last {
		h.Presence.IdentityOffline(conn.Identity)
	}
}

// Kick force-disconnects every live session of a user, e.g. after the
// account is deactivated mid-session. Same cleanup path as a transport
// close.
func (h *Hub) Kick(user domain.UserID) int {
	ids := h.Sessions.SessionsOf(user)
	for _, id := range ids {
		h.Disconnect(id)
	}
	return len(ids)
}

// CourseChannels lists the live course channels with member counts.
func (h *Hub) CourseChannels() []core.ChannelInfo {
	return h.Channels.List(domain.ChannelCourse)
}

// OnlineCount reports how many identities hold at least one session.
func (h *Hub) OnlineCount() int { return h.Sessions.OnlineCount() }

func (h *Hub) pushCount(name domain.ChannelName) {
	env := core.NewEnvelope(core.FrameChannelCount, countPayload{
		Channel: name,
		Members: h.Channels.Count(name),
	}, time.Now().UTC())
	// Shares the dispatcher's delivery path so slow members are subject
	// to the backpressure policy here as well.
	h.dispatch.deliverIDs(h.Channels.MembersOf(name), env)
}
