package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/faith-chronicle/internal/config"
	"github.com/jwebster45206/faith-chronicle/internal/handlers"
	"github.com/jwebster45206/faith-chronicle/internal/logger"
	"github.com/jwebster45206/faith-chronicle/internal/middleware"
	"github.com/jwebster45206/faith-chronicle/internal/services/events"
	"github.com/jwebster45206/faith-chronicle/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Faith Chronicle API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"default_character", cfg.DefaultCharacter)

	store := storage.NewRedisStorage(cfg.RedisURL, storage.Options{
		DataDir:            cfg.DataDir,
		GameTTL:            cfg.GameTTL,
		LockTTL:            cfg.LockTTL,
		DefaultCharacterID: cfg.DefaultCharacter,
	}, log)

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	registry, err := store.LoadRegistry(storageCtx)
	if err != nil {
		log.Error("Failed to load stories and characters", "error", err)
		os.Exit(1)
	}
	log.Info("Stories and characters loaded",
		"characters", len(registry.Characters()),
		"default_character", registry.DefaultCharacterID())

	broadcaster := events.NewBroadcaster(store.Client(), log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	mux.Handle("/v1/characters", handlers.NewCharactersHandler(registry, log))
	mux.Handle("/v1/stories/", handlers.NewBoardHandler(registry, log))

	gameHandler := handlers.NewGameHandler(store, registry, broadcaster, nil, log)
	mux.Handle("/v1/games", gameHandler)
	mux.Handle("/v1/games/", gameHandler)

	mux.Handle("/v1/events/games/", handlers.NewEventsHandler(broadcaster, log))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events endpoint streams for the life of the connection
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
