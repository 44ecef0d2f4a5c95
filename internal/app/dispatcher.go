package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/campuskit/beacon/internal/core"
	"github.com/campuskit/beacon/internal/domain"
)

var ErrUnknownEvent = errors.New("unknown event variant")

type dmPayload struct {
	From domain.UserID `json:"from"`
	Body domain.Body   `json:"body"`
}

type channelPayload struct {
	Channel domain.ChannelName `json:"channel"`
	Body    domain.Body        `json:"body"`
}

type announcementPayload struct {
	Scope string      `json:"scope"`
	Body  domain.Body `json:"body"`
}

// Dispatcher routes one event to the connections of its target(s). It
// reads already-resolved in-memory rosters and never blocks on I/O;
// delivery is at-most-once per live session, zero sessions is zero
// deliveries and not an error. Connections that cannot absorb the frame
// are handed to the backpressure policy.
type Dispatcher struct {
	channels *core.ChannelTable
	conns    *core.ConnTable
	policy   Policy

	// onSlow is invoked outside any dispatcher lock when the policy
	// decides to drop a connection. Wired to the hub's disconnect path.
	onSlow func(core.ConnID)
}

func NewDispatcher(channels *core.ChannelTable, conns *core.ConnTable, policy Policy) *Dispatcher {
	return &Dispatcher{channels: channels, conns: conns, policy: policy}
}

// Dispatch fans the event out and reports how many sessions it reached.
// The event set is sealed in the domain package; the default branch
// guards against a variant added there without a route here.
func (d *Dispatcher) Dispatch(evt domain.Event) (int, error) {
	switch e := evt.(type) {
	case domain.NotifyIdentity:
		roster := d.channels.MembersOf(domain.NotifyChannel(e.Target))
		env := core.NewEnvelope(core.FrameNotification, e.Body, e.TS)
		return d.deliverIDs(roster, env), nil
	case domain.MessageIdentity:
		roster := d.channels.MembersOf(domain.InboxChannel(e.Target))
		env := core.NewEnvelope(core.FrameDM, dmPayload{From: e.From, Body: e.Body}, e.TS)
		return d.deliverIDs(roster, env), nil
	case domain.BroadcastChannel:
		roster := d.channels.MembersOf(e.Channel)
		env := core.NewEnvelope(core.FrameChannel, channelPayload{Channel: e.Channel, Body: e.Body}, e.TS)
		return d.deliverIDs(roster, env), nil
	case domain.BroadcastRole:
		env := core.NewEnvelope(core.FrameAnnouncement, announcementPayload{Scope: string(e.Role), Body: e.Body}, e.TS)
		return d.deliver(d.conns.ByRole(e.Role), env), nil
	case domain.BroadcastAll:
		env := core.NewEnvelope(core.FrameAnnouncement, announcementPayload{Scope: "all", Body: e.Body}, e.TS)
		return d.deliver(d.conns.Snapshot(), env), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownEvent, evt)
	}
}

func (d *Dispatcher) deliverIDs(roster []core.ConnID, env core.Envelope) int {
	conns := make([]*core.Conn, 0, len(roster))
	for _, id := range roster {
		if c, ok := d.conns.Get(id); ok {
			conns = append(conns, c)
		}
	}
	return d.deliver(conns, env)
}

func (d *Dispatcher) deliver(conns []*core.Conn, env core.Envelope) int {
	frame, err := env.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Str("frame", env.Type).Msg("encode envelope")
		return 0
	}

	sent := 0
	var slow []core.ConnID
	for _, c := range conns {
		err := c.TrySend(frame)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, core.ErrBackpressure):
			if d.policy != nil && d.policy.OnBackpressure(c) == Disconnect {
				slow = append(slow, c.ID)
			}
		default:
			// Closed sink; cleanup is already in flight for it.
		}
	}

	for _, id := range slow {
		log.Warn().Str("module", "app.dispatch").Str("conn", string(id)).Msg("dropping slow connection")
		if d.onSlow != nil {
			d.onSlow(id)
		}
	}

	log.Debug().Str("module", "app.dispatch").Str("frame", env.Type).
		Int("sent_to", sent).Int("dropped", len(slow)).Msg("dispatch result")
	return sent
}
