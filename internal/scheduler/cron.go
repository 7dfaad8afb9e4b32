package scheduler

import (
	"context"
	"fmt"

	"anifunnel/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	authCtrl  *controllers.AuthController
	watchlist *controllers.WatchlistController
	logger    *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(authCtrl *controllers.AuthController, watchlist *controllers.WatchlistController, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		authCtrl:  authCtrl,
		watchlist: watchlist,
		logger:    logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every 15 minutes: refresh the watching list so matching stays warm
	_, err := s.cron.AddFunc("*/15 * * * *", func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	// Every hour: drop the credential once it expires
	_, err = s.cron.AddFunc("0 * * * *", func() {
		s.authCtrl.RemoveExpired()
	})
	if err != nil {
		return fmt.Errorf("failed to add credential cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Warm the cache immediately when already authenticated
	go s.runRefresh()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runRefresh executes the watching list refresh job
func (s *Scheduler) runRefresh() {
	cred, err := s.authCtrl.Active()
	if err != nil {
		s.logger.WithError(err).Error("Refresh job failed to load credential")
		return
	}
	if cred == nil {
		s.logger.Debug("Skipping watching list refresh, not authenticated")
		return
	}

	if _, err := s.watchlist.Refresh(context.Background(), cred); err != nil {
		s.logger.WithError(err).Error("Watching list refresh failed")
	}
}
