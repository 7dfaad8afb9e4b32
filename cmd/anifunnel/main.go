package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"anifunnel/internal/api"
	"anifunnel/internal/config"
	"anifunnel/internal/controllers"
	"anifunnel/internal/models"
	"anifunnel/internal/scheduler"
	"anifunnel/internal/services/anilist"
	"anifunnel/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting anifunnel")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize AniList client
	anilistClient := anilist.NewClient(logger)
	logger.Info("AniList client initialized")

	// 5. Initialize controllers
	ttl := time.Duration(cfg.ListRefreshMinutes) * time.Minute
	watchlistCtrl := controllers.NewWatchlistController(anilistClient, ttl, logger)
	authCtrl := controllers.NewAuthController(db, anilistClient, watchlistCtrl, logger)
	scrobbleCtrl := controllers.NewScrobbleController(db, anilistClient, watchlistCtrl, cfg.PlexUser, logger)
	logger.Info("Controllers initialized")

	// 6. Clean up and report persisted authentication state
	authCtrl.RemoveExpired()
	authCtrl.LogState()

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(authCtrl, watchlistCtrl, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, scrobbleCtrl, authCtrl, watchlistCtrl, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("anifunnel is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("anifunnel stopped")
	return nil
}
