package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campuskit/beacon/internal/core"
	"github.com/campuskit/beacon/internal/domain"
)

type presencePayload struct {
	User        domain.UserID `json:"user"`
	DisplayName string        `json:"display_name"`
	Status      string        `json:"status"`
}

// PresenceTracker turns session-registry first/last edges into status
// pushes. The status goes to every other connected identity, not to a
// contact list; see DESIGN.md D1 for why the broad broadcast is kept.
// No history is retained.
type PresenceTracker struct {
	conns    *core.ConnTable
	dispatch *Dispatcher
}

func NewPresenceTracker(conns *core.ConnTable, dispatch *Dispatcher) *PresenceTracker {
	return &PresenceTracker{conns: conns, dispatch: dispatch}
}

func (p *PresenceTracker) IdentityOnline(ident domain.Identity) int {
	return p.broadcast(ident, "online")
}

func (p *PresenceTracker) IdentityOffline(ident domain.Identity) int {
	return p.broadcast(ident, "offline")
}

func (p *PresenceTracker) broadcast(ident domain.Identity, status string) int {
	env := core.NewEnvelope(core.FramePresence, presencePayload{
		User:        ident.UserID,
		DisplayName: ident.DisplayName,
		Status:      status,
	}, time.Now().UTC())

	// Same delivery path as event fan-out, so the backpressure policy
	// sees slow connections here too.
	sent := p.dispatch.deliver(p.conns.ExceptUser(ident.UserID), env)
	log.Debug().Str("module", "app.presence").Str("user", string(ident.UserID)).
		Str("status", status).Int("sent_to", sent).Msg("presence broadcast")
	return sent
}
