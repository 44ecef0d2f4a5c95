// Package http exposes the collaborator-facing REST surface: publish,
// force-disconnect and a couple of read-only views, plus the WS
// handshake endpoint.
package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/campuskit/beacon/internal/adapters/ws"
	"github.com/campuskit/beacon/internal/app"
	"github.com/campuskit/beacon/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, hub *app.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	ctl := ws.NewController(hub, cfg.ReadLimit, cfg.PingPeriod, cfg.SendBuffer)
	h := &Handlers{Hub: hub}

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleConnect(ctx, c)
	})
	api.POST("/publish", h.Publish)
	api.POST("/kick", h.Kick)
	api.GET("/channels", h.Channels)
	api.GET("/presence", h.Presence)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
