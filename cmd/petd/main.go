// Package main boots the pet service: it loads settings, builds the model
// backends and serves the engine over HTTP and websocket.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/easeaico/project-pet/internal/config"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/engine"
	"github.com/easeaico/project-pet/internal/models"
	"github.com/easeaico/project-pet/internal/server"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "provider", cfg.Provider, "model", cfg.Model, "store", cfg.StoreDriver)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, storage.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("failed to open settings store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate settings store: %v", err)
	}

	petSettings, err := settings.Load(ctx, store)
	if err != nil {
		log.Fatalf("failed to load pet settings: %v", err)
	}

	router, err := models.NewRouter(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize models: %v", err)
	}

	var eng *engine.Engine
	hub := server.NewHub(func() map[engine.ActorID]emotion.Mood {
		moods := map[engine.ActorID]emotion.Mood{}
		for _, id := range eng.Actors() {
			moods[id] = eng.CurrentMood(id)
		}
		return moods
	})
	host := server.NewHostState()
	eng = engine.New(engine.Options{
		Settings: petSettings,
		Store:    store,
		Host:     host,
		Renderer: hub,
		Backends: router,
	})
	eng.Start()
	defer eng.Stop()
	slog.Info("pets started", "actors", eng.Actors(), "profiles", router.ProfileNames())

	srv := server.New(eng, host, hub, router)
	if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
		slog.Error("server stopped with error", "error", err.Error())
	}
	slog.Info("pet service shutdown complete")
}
