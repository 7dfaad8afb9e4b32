package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"anifunnel/internal/controllers"
	"github.com/sirupsen/logrus"
)

// UserHandler manages the single authenticated user
type UserHandler struct {
	authCtrl *controllers.AuthController
	logger   *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(authCtrl *controllers.AuthController, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		authCtrl: authCtrl,
		logger:   logger,
	}
}

// UserResponse describes the authenticated user and the remaining validity
// of the credential
type UserResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Expiry int64  `json:"expiry"`
}

// AuthenticationRequest carries a raw AniList API token
type AuthenticationRequest struct {
	Token string `json:"token"`
}

// ServeHTTP dispatches /api/user by method: GET returns the active user,
// POST authenticates with a new token, DELETE logs out
func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.post(w, r)
	case http.MethodDelete:
		h.delete(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *UserHandler) get(w http.ResponseWriter, _ *http.Request) {
	cred, err := h.authCtrl.Active()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load credential")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if cred == nil {
		json.NewEncoder(w).Encode(nil)
		return
	}
	json.NewEncoder(w).Encode(UserResponse{
		ID:     cred.UserID,
		Name:   cred.Username,
		Expiry: cred.Expiry.Unix(),
	})
}

func (h *UserHandler) post(w http.ResponseWriter, r *http.Request) {
	var req AuthenticationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	cred, err := h.authCtrl.Authenticate(r.Context(), req.Token)
	if err != nil {
		h.logger.WithError(err).Warn("Authentication failed")
		http.Error(w, "Authentication failed. Ensure that you have a valid AniList API token.",
			http.StatusUnprocessableEntity)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"username": cred.Username,
		"valid_for": cred.RemainingValidity(time.Now()).Round(time.Hour).String(),
	}).Info("Authentication data saved")
	w.WriteHeader(http.StatusAccepted)
}

func (h *UserHandler) delete(w http.ResponseWriter) {
	if err := h.authCtrl.Logout(); err != nil {
		h.logger.WithError(err).Error("Failed to log out")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
