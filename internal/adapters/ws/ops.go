package ws

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campuskit/beacon/internal/app"
	"github.com/campuskit/beacon/internal/core"
	"github.com/campuskit/beacon/internal/domain"
)

func (ctl *Controller) handleFrame(conn *core.Conn, c *pushConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(conn, c, data)
	case "leave":
		ctl.handleLeave(conn, c, data)
	case "send":
		ctl.handleSend(conn, c, data)
	case "announce":
		ctl.handleAnnounce(conn, c, data)
	case "ping":
		ctl.sendJSON(c, core.NewEnvelope(core.FramePong, nil, time.Now().UTC()))
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown op")
		ctl.sendError(c, "unknown_op")
	}
}

func (ctl *Controller) handleJoin(conn *core.Conn, c *pushConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	name := domain.ChannelName(p.Channel)
	if err := ctl.Hub.Join(conn.ID, name); err != nil {
		ctl.sendOpError(c, err)
		return
	}
	log.Info().Str("module", "ws").Str("conn", string(conn.ID)).Str("channel", p.Channel).Msg("join")
	ctl.sendJSON(c, core.NewEnvelope(core.FrameJoined, map[string]any{
		"channel": name,
		"members": ctl.Hub.Channels.Count(name),
	}, time.Now().UTC()))
}

func (ctl *Controller) handleLeave(conn *core.Conn, c *pushConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	name := domain.ChannelName(p.Channel)
	if err := ctl.Hub.Leave(conn.ID, name); err != nil {
		ctl.sendOpError(c, err)
		return
	}
	log.Info().Str("module", "ws").Str("conn", string(conn.ID)).Str("channel", p.Channel).Msg("leave")
	ctl.sendJSON(c, core.NewEnvelope(core.FrameLeft, map[string]any{"channel": name}, time.Now().UTC()))
}

func (ctl *Controller) handleSend(conn *core.Conn, c *pushConn, data []byte) {
	var p struct {
		Type string      `json:"type"`
		To   string      `json:"to"`
		Body domain.Body `json:"body"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	// Fire-and-forget: an offline recipient means zero deliveries, and
	// the sender is not told. Durable records belong to calling services.
	n := ctl.Hub.SendDirect(conn.Identity.UserID, domain.UserID(p.To), p.Body)
	log.Debug().Str("module", "ws").Str("from", string(conn.Identity.UserID)).
		Str("to", p.To).Int("sent_to", n).Msg("direct message")
}

func (ctl *Controller) handleAnnounce(conn *core.Conn, c *pushConn, data []byte) {
	var p struct {
		Type    string      `json:"type"`
		Channel string      `json:"channel"`
		Body    domain.Body `json:"body"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if _, err := ctl.Hub.Announce(conn, domain.ChannelName(p.Channel), p.Body); err != nil {
		ctl.sendOpError(c, err)
		return
	}
}

func (ctl *Controller) sendOpError(c *pushConn, err error) {
	if errors.Is(err, app.ErrChannelNotPermitted) {
		ctl.sendError(c, "not_permitted")
		return
	}
	ctl.sendError(c, err.Error())
}

func (ctl *Controller) sendError(c *pushConn, reason string) {
	ctl.sendJSON(c, core.NewEnvelope(core.FrameError, map[string]any{"error": reason}, time.Now().UTC()))
}

func (ctl *Controller) sendJSON(c *pushConn, env core.Envelope) {
	f, err := env.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(f)
}
