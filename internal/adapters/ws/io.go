package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/campuskit/beacon/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *pushConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns the inbound half. Idle policy lives here, not in the
// core: a peer that stops answering pings misses the read deadline and
// the pump exits, which triggers cleanup in the caller.
func (ctl *Controller) readPump(ctx context.Context, conn *core.Conn, c *pushConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(conn.ID)).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.ReadLimit)
	idle := ctl.PingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(idle))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idle))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(conn.ID)).Msg("readPump read error")
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(idle))
			ctl.handleFrame(conn, c, data)
		}
	}
}
