package controllers

import (
	"context"
	"errors"
	"sync"
	"time"

	"anifunnel/internal/matcher"
	"anifunnel/internal/models"
	"anifunnel/internal/services/anilist"
	"github.com/sirupsen/logrus"
)

// ScrobbleController decides what a playback-completion event does to the
// remote list: nothing, or a single sequential progress advance.
type ScrobbleController struct {
	db        *models.Database
	svc       TrackerService
	watchlist *WatchlistController
	plexUser  string
	logger    *logrus.Logger

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewScrobbleController creates a new scrobble controller. plexUser, when
// non-empty, restricts processing to events from that Plex account.
func NewScrobbleController(db *models.Database, svc TrackerService, watchlist *WatchlistController, plexUser string, logger *logrus.Logger) *ScrobbleController {
	return &ScrobbleController{
		db:        db,
		svc:       svc,
		watchlist: watchlist,
		plexUser:  plexUser,
		logger:    logger,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// ResolveEpisode applies the override episode offset to an incoming episode
// number. Zero and negative results are allowed; the decision below rejects
// them as not advancing progress.
func ResolveEpisode(episode int, o *models.Override) int {
	if o == nil {
		return episode
	}
	return episode + o.EpisodeOffset
}

// mediaLock returns the mutex serializing decisions for one media ID
func (c *ScrobbleController) mediaLock(mediaID int64) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()

	lock, ok := c.locks[mediaID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[mediaID] = lock
	}
	return lock
}

// HandleEvent processes one playback-completion event to a terminal outcome.
// Every outcome is logged with enough context to configure an override; no
// outcome is an error to the event source.
func (c *ScrobbleController) HandleEvent(ctx context.Context, event *models.IncomingEvent) models.Outcome {
	log := c.logger.WithFields(logrus.Fields{
		"title":   event.RawTitle,
		"episode": event.EpisodeNumber,
	})

	if c.plexUser != "" && event.Account != c.plexUser {
		log.WithField("account", event.Account).Info("Ignoring event for other Plex account")
		return models.OutcomeSkipped
	}

	cred, err := c.db.GetCredential()
	if err != nil {
		log.WithError(err).Error("Failed to read credential")
		return models.OutcomeError
	}
	if !cred.Valid(time.Now()) {
		log.Info("No valid credential, event has no remote effect")
		return models.OutcomeUnauthenticated
	}

	entries, err := c.watchlist.Entries(ctx, cred)
	if err != nil {
		log.WithError(err).Error("Failed to get watching list, abandoning event")
		return models.OutcomeError
	}

	// A storage failure here degrades to "no overrides" instead of
	// failing the event
	overrides, err := c.db.AllOverrides()
	if err != nil {
		log.WithError(err).Warn("Failed to read overrides, matching without them")
		overrides = nil
	}

	match := matcher.Match(event.RawTitle, entries, overrides)
	if match.Ambiguous {
		log.WithField("score", match.Score).Info(
			"Multiple entries tied for the best match, add a title override to disambiguate")
		return models.OutcomeAmbiguous
	}
	if match.Entry == nil {
		log.WithField("score", match.Score).Info("No list entry matched")
		return models.OutcomeUnmatched
	}

	var override *models.Override
	for _, o := range overrides {
		if o.MediaID == match.Entry.MediaID {
			override = o
			break
		}
	}
	resolved := ResolveEpisode(event.EpisodeNumber, override)

	log = log.WithFields(logrus.Fields{
		"media_id":         match.Entry.MediaID,
		"matched":          match.Entry.Title(),
		"score":            match.Score,
		"resolved_episode": resolved,
	})

	// Serialize the decide/write/commit sequence per media ID so concurrent
	// duplicate deliveries cannot both observe the pre-update progress. The
	// cache-wide lock is never held across the remote call.
	lock := c.mediaLock(match.Entry.MediaID)
	lock.Lock()
	defer lock.Unlock()

	progress, ok := c.watchlist.Progress(match.Entry.MediaID)
	if !ok {
		log.Warn("Matched entry left the list before the decision, abandoning event")
		return models.OutcomeError
	}
	log = log.WithField("progress", progress)

	if resolved <= progress {
		log.Info("Episode already recorded")
		return models.OutcomeNoAdvance
	}
	if resolved > progress+1 {
		log.Info("Episode skips ahead, only sequential advancement is accepted")
		return models.OutcomeGap
	}

	if err := c.svc.UpdateProgress(ctx, cred.Token, match.Entry.EntryID, progress+1); err != nil {
		if errors.Is(err, anilist.ErrInvalidToken) {
			log.Warn("Credential rejected by remote service, re-authentication required")
			return models.OutcomeUnauthenticated
		}
		log.WithError(err).Error("Failed to update remote progress, abandoning event")
		return models.OutcomeError
	}

	c.watchlist.CommitProgress(match.Entry.MediaID, progress+1)
	log.Info("Advanced progress")
	return models.OutcomeAdvance
}
