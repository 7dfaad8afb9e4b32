package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anifunnel/internal/models"
	"anifunnel/internal/services/anilist"
	"github.com/sirupsen/logrus"
)

// TrackerService is the contract the controllers need from the remote list
// service. Implemented by anilist.Client.
type TrackerService interface {
	Viewer(ctx context.Context, token string) (*anilist.Viewer, error)
	WatchingList(ctx context.Context, token string, userID int64) ([]*models.TrackedEntry, error)
	UpdateProgress(ctx context.Context, token string, entryID int64, progress int) error
}

// WatchlistController caches the user's remote watching list. The snapshot is
// replaced wholesale on refresh and only mutated in place by CommitProgress
// after a confirmed remote write.
type WatchlistController struct {
	svc    TrackerService
	ttl    time.Duration
	logger *logrus.Logger

	mu        sync.RWMutex
	entries   []*models.TrackedEntry
	fetchedAt time.Time
}

// NewWatchlistController creates a new watchlist controller. ttl is the
// staleness window after which Entries refreshes from the remote service.
func NewWatchlistController(svc TrackerService, ttl time.Duration, logger *logrus.Logger) *WatchlistController {
	return &WatchlistController{
		svc:    svc,
		ttl:    ttl,
		logger: logger,
	}
}

// Entries returns the cached snapshot, refreshing it first when it is older
// than the staleness window or has never been fetched
func (c *WatchlistController) Entries(ctx context.Context, cred *models.Credential) ([]*models.TrackedEntry, error) {
	c.mu.RLock()
	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl {
		entries := c.entries
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	return c.Refresh(ctx, cred)
}

// Refresh fetches the watching list and swaps the snapshot. A failed fetch
// leaves the previous snapshot in place.
func (c *WatchlistController) Refresh(ctx context.Context, cred *models.Credential) ([]*models.TrackedEntry, error) {
	if !cred.Valid(time.Now()) {
		return nil, fmt.Errorf("cannot refresh watching list without a valid credential")
	}

	entries, err := c.svc.WatchingList(ctx, cred.Token, cred.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watching list: %w", err)
	}

	c.mu.Lock()
	c.entries = entries
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.logger.WithField("count", len(entries)).Debug("Watching list refreshed")
	return entries, nil
}

// Progress reads the current progress of a cached entry
func (c *WatchlistController) Progress(mediaID int64) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.entries {
		if entry.MediaID == mediaID {
			return entry.Progress, true
		}
	}
	return 0, false
}

// CommitProgress records a confirmed remote write in the cached entry. The
// mutation only ever applies the single sequential increment, so cached
// progress never decreases and never jumps.
func (c *WatchlistController) CommitProgress(mediaID int64, newProgress int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if entry.MediaID != mediaID {
			continue
		}
		if newProgress != entry.Progress+1 {
			return false
		}
		entry.Progress = newProgress
		return true
	}
	return false
}

// Clear drops the snapshot, forcing a refresh on the next read. Called when
// the active credential changes.
func (c *WatchlistController) Clear() {
	c.mu.Lock()
	c.entries = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
