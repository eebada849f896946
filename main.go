package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/catch-mister-x/internal/clock"
	"github.com/aaronzipp/catch-mister-x/internal/config"
	"github.com/aaronzipp/catch-mister-x/internal/game"
	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/handlers"
	"github.com/aaronzipp/catch-mister-x/internal/session"
	"github.com/aaronzipp/catch-mister-x/internal/store"
	"github.com/aaronzipp/catch-mister-x/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging(os.Stderr)

	g, err := loadMap(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load map")
	}
	log.Info().
		Str("map", g.Name()).
		Int("stations", len(g.Stations())).
		Int("edges", g.EdgeCount()).
		Msg("map loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.System()
	rooms := store.NewRoomStore(ctx, session.Config{
		Graph:          g,
		Clock:          clk,
		Options:        game.OptionsFor(g),
		MaxPlayers:     cfg.MaxPlayers,
		QueueSize:      cfg.QueueSize,
		EnqueueTimeout: cfg.EnqueueTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		TurnTimeout:    cfg.TurnTimeout,
	})
	router := &ws.Router{
		Rooms:      rooms,
		Clock:      clk,
		AdminToken: cfg.AdminToken,
		BufferSize: cfg.SubscriberBuffer,
	}
	if cfg.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN not set, admin commands are open")
	}

	h := handlers.NewContext(rooms, router, g, cfg.AllowedOrigins)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		rooms.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// loadMap reads MAP_PATH, falling back to the built-in small map, and checks
// the map can host a full room.
func loadMap(cfg config.Config) (*graph.Graph, error) {
	g := graph.Small()
	if cfg.MapPath != "" {
		var err error
		if g, err = graph.LoadFile(cfg.MapPath); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(cfg.MaxPlayers); err != nil {
		return nil, err
	}
	return g, nil
}
