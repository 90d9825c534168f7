package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/critfumble/internal/config"
	"github.com/jwebster45206/critfumble/internal/handlers"
	"github.com/jwebster45206/critfumble/internal/logger"
	"github.com/jwebster45206/critfumble/internal/middleware"
	"github.com/jwebster45206/critfumble/internal/services"
	"github.com/jwebster45206/critfumble/internal/storage"
	"github.com/jwebster45206/critfumble/pkg/dice"
	"github.com/jwebster45206/critfumble/pkg/narrative"
	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/jwebster45206/critfumble/pkg/tables"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting critfumble API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	repo, err := tables.LoadDir(cfg.DataDir)
	if err != nil {
		log.Error("Failed to load rule tables", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}
	log.Info("Rule tables loaded", "sources", repo.Sources())

	events, err := storage.NewFileStore(cfg.LogDir, cfg.LogFallbackDir, cfg.LogFile, log)
	if err != nil {
		log.Error("Failed to prepare event log", "error", err)
		os.Exit(1)
	}

	// Redis only caches geolocation answers, so the service runs without it.
	var cache services.Cache
	if cfg.RedisURL != "" {
		redisService := services.NewRedisService(cfg.RedisURL, log)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := redisService.WaitForConnection(ctx, 15, 2*time.Second); err != nil {
			log.Warn("Redis unavailable, geolocation cache disabled", "error", err)
			_ = redisService.Close()
		} else {
			cache = redisService
		}
		cancel()
	}

	rng := dice.NewCryptoSource()
	engine := roll.NewEngine(repo, dice.NewRoller(rng))
	geo := services.NewGeoResolver(cfg.GeoAPIURL, cfg.GeoTimeout, cache, cfg.GeoCacheTTL, log)
	rollService := services.NewRollService(engine, narrative.NewComposer(rng), geo, events, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(cache, repo, log))
	mux.Handle("/v1/roll", handlers.NewRollHandler(rollService, log))
	mux.Handle("/v1/history", handlers.NewHistoryHandler(rollService, log))
	mux.Handle("/v1/tables", handlers.NewTablesHandler(repo, log))
	mux.Handle("/v1/share", handlers.NewShareHandler(services.NewWebhookRelay(cfg.DiscordWebhookURL, log), log))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.LoggerWith(log, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error("Error closing cache connection", "error", err)
		}
	}

	log.Info("Server exited")
}
