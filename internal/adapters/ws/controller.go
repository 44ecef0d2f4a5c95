// Package ws is the gorilla/websocket transport adapter. It owns the
// handshake, the per-connection pump goroutines and the PushSink given
// to the core; nothing below this package touches websocket types.
package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/campuskit/beacon/internal/app"
	"github.com/campuskit/beacon/internal/core"
)

type Controller struct {
	Hub        *app.Hub
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

func NewController(hub *app.Hub, readLimit int64, pingPeriod time.Duration, sendBuffer int) *Controller {
	return &Controller{Hub: hub, ReadLimit: readLimit, PingPeriod: pingPeriod, SendBuffer: sendBuffer}
}

// pushConn adapts a websocket connection to core.PushSink. The send
// channel decouples fan-out from the socket; a full channel surfaces as
// core.ErrBackpressure instead of blocking the dispatcher.
type pushConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *pushConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrSinkClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *pushConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func credentialFrom(c *gin.Context) string {
	if tok := c.Query("token"); tok != "" {
		return tok
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func rejectStatus(err error) int {
	switch {
	case errors.Is(err, app.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrIdentityNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrAccountDeactivated):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// HandleConnect authenticates, upgrades and admits one client session.
// Authentication happens before the upgrade so a rejected credential
// never creates a websocket, let alone core state.
func (ctl *Controller) HandleConnect(ctx context.Context, c *gin.Context) {
	ident, err := ctl.Hub.Authenticate(c.Request.Context(), credentialFrom(c))
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("handshake rejected")
		c.JSON(rejectStatus(err), gin.H{"error": err.Error()})
		return
	}

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}

	sink := &pushConn{
		conn: sock,
		send: make(chan core.Frame, ctl.SendBuffer),
	}
	conn := ctl.Hub.Connect(ident, sink)
	log.Info().Str("module", "ws").Str("conn", string(conn.ID)).
		Str("user", string(ident.UserID)).Msg("new WS connection")

	ctl.sendJSON(sink, core.NewEnvelope(core.FrameWelcome, gin.H{
		"user":         ident.UserID,
		"display_name": ident.DisplayName,
		"role":         ident.Role,
	}, time.Now().UTC()))

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sink)
	go func() {
		ctl.readPump(ctx, conn, sink)
		// Transport judged the connection dead (close, error or missed
		// heartbeats); unwind everything through the one cleanup path.
		ctl.Hub.Disconnect(conn.ID)
		cancel()
	}()
}
