package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"anifunnel/internal/api/handlers"
	"anifunnel/internal/api/middleware"
	"anifunnel/internal/config"
	"anifunnel/internal/controllers"
	"anifunnel/internal/models"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server       *http.Server
	db           *models.Database
	scrobbleCtrl *controllers.ScrobbleController
	authCtrl     *controllers.AuthController
	watchlist    *controllers.WatchlistController
	logger       *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	db *models.Database,
	scrobbleCtrl *controllers.ScrobbleController,
	authCtrl *controllers.AuthController,
	watchlist *controllers.WatchlistController,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		db:           db,
		scrobbleCtrl: scrobbleCtrl,
		authCtrl:     authCtrl,
		watchlist:    watchlist,
		logger:       logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	// Plex webhook
	webhookHandler := handlers.NewWebhookHandler(s.scrobbleCtrl, s.logger)
	mux.HandleFunc("/{$}", webhookHandler.ServeHTTP)

	// Management API
	animeHandler := handlers.NewAnimeHandler(s.db, s.authCtrl, s.watchlist, s.logger)
	mux.HandleFunc("/api/anime", animeHandler.List)
	mux.HandleFunc("/api/anime/{id}/edit", animeHandler.Edit)

	userHandler := handlers.NewUserHandler(s.authCtrl, s.logger)
	mux.HandleFunc("/api/user", userHandler.ServeHTTP)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
