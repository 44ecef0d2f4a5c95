package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/campuskit/beacon/internal/adapters/http"
	"github.com/campuskit/beacon/internal/app"
	"github.com/campuskit/beacon/internal/config"
	"github.com/campuskit/beacon/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Secret == "" {
		log.Fatal().Msg("secret is required")
	}

	// The platform's user store belongs elsewhere; the in-memory
	// directory seeded from config is enough for a standalone deploy.
	dir := app.NewMemoryDirectory()
	for _, u := range cfg.Users {
		ident, err := domain.NewIdentity(domain.UserID(u.ID), domain.Role(u.Role), u.DisplayName)
		if err != nil {
			log.Error().Err(err).Str("user", u.ID).Msg("skipping seed user")
			continue
		}
		dir.Put(ident)
	}

	auth := app.NewAuthenticator([]byte(cfg.Secret), dir)
	hub := app.NewHub(auth, app.DisconnectSlowPolicy{})

	r := router.SetupRouter(ctx, cfg, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("beacon server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
