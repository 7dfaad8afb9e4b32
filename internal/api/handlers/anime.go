package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"anifunnel/internal/controllers"
	"anifunnel/internal/models"
	"github.com/sirupsen/logrus"
)

// AnimeHandler serves the tracked list with its overrides and accepts
// override edits
type AnimeHandler struct {
	db        *models.Database
	authCtrl  *controllers.AuthController
	watchlist *controllers.WatchlistController
	logger    *logrus.Logger
}

// NewAnimeHandler creates a new anime handler
func NewAnimeHandler(db *models.Database, authCtrl *controllers.AuthController, watchlist *controllers.WatchlistController, logger *logrus.Logger) *AnimeHandler {
	return &AnimeHandler{
		db:        db,
		authCtrl:  authCtrl,
		watchlist: watchlist,
		logger:    logger,
	}
}

// AnimeResponse is one tracked entry with its override, for display
type AnimeResponse struct {
	MediaID       int64  `json:"media_id"`
	Title         string `json:"title"`
	Progress      int    `json:"progress"`
	Status        string `json:"status"`
	TitleOverride string `json:"title_override,omitempty"`
	EpisodeOffset int    `json:"episode_offset,omitempty"`
}

// OverrideRequest is the override edit payload. An empty title and zero
// offset remove the override.
type OverrideRequest struct {
	Title         string `json:"title"`
	EpisodeOffset int    `json:"episode_offset"`
}

// List handles GET /api/anime
func (h *AnimeHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cred, err := h.authCtrl.Active()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load credential")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if cred == nil {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	entries, err := h.watchlist.Entries(r.Context(), cred)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch watching list")
		http.Error(w, "Failed to fetch watching list", http.StatusBadGateway)
		return
	}

	overrides, err := h.db.AllOverrides()
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read overrides, listing without them")
		overrides = nil
	}
	byMedia := make(map[int64]*models.Override, len(overrides))
	for _, o := range overrides {
		byMedia[o.MediaID] = o
	}

	response := make([]AnimeResponse, 0, len(entries))
	for _, entry := range entries {
		item := AnimeResponse{
			MediaID:  entry.MediaID,
			Title:    entry.Title(),
			Progress: entry.Progress,
			Status:   string(entry.Status),
		}
		if o := byMedia[entry.MediaID]; o != nil {
			item.TitleOverride = o.TitleOverride
			item.EpisodeOffset = o.EpisodeOffset
		}
		response = append(response, item)
	}
	sort.Slice(response, func(i, j int) bool {
		return response[i].Title < response[j].Title
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Edit handles POST /api/anime/{id}/edit
func (h *AnimeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mediaID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid media ID", http.StatusBadRequest)
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	o, err := h.db.UpsertOverride(mediaID, req.Title, req.EpisodeOffset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to save override")
		http.Error(w, "Failed to save override", http.StatusInternalServerError)
		return
	}

	if o == nil {
		h.logger.WithField("media_id", mediaID).Info("Override removed")
	} else {
		h.logger.WithFields(logrus.Fields{
			"media_id":       mediaID,
			"title_override": o.TitleOverride,
			"episode_offset": o.EpisodeOffset,
		}).Info("Override saved")
	}

	w.WriteHeader(http.StatusAccepted)
}
