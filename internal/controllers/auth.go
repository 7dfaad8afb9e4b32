package controllers

import (
	"context"
	"fmt"
	"time"

	"anifunnel/internal/models"
	"anifunnel/internal/services/anilist"
	"github.com/sirupsen/logrus"
)

// AuthController manages the single active credential gating all remote calls
type AuthController struct {
	db        *models.Database
	svc       TrackerService
	watchlist *WatchlistController
	logger    *logrus.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(db *models.Database, svc TrackerService, watchlist *WatchlistController, logger *logrus.Logger) *AuthController {
	return &AuthController{
		db:        db,
		svc:       svc,
		watchlist: watchlist,
		logger:    logger,
	}
}

// Active returns the stored credential when it is still valid, nil otherwise
func (c *AuthController) Active() (*models.Credential, error) {
	cred, err := c.db.GetCredential()
	if err != nil {
		return nil, err
	}
	if !cred.Valid(time.Now()) {
		return nil, nil
	}
	return cred, nil
}

// Authenticate validates a token against the remote service and stores it as
// the active credential, superseding any previous one. The expiry comes from
// the token itself, never from local state.
func (c *AuthController) Authenticate(ctx context.Context, token string) (*models.Credential, error) {
	expiry, err := anilist.TokenExpiry(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token expiry: %w", err)
	}
	if !expiry.After(time.Now()) {
		return nil, fmt.Errorf("token expired at %s", expiry.Format(time.RFC3339))
	}

	viewer, err := c.svc.Viewer(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	cred := &models.Credential{
		Token:    token,
		UserID:   viewer.ID,
		Username: viewer.Name,
		IssuedAt: time.Now(),
		Expiry:   expiry,
	}
	if err := c.db.SetCredential(cred); err != nil {
		return nil, err
	}

	// The cached list belongs to the previous owner
	c.watchlist.Clear()

	c.logger.WithFields(logrus.Fields{
		"user_id":  cred.UserID,
		"username": cred.Username,
		"expiry":   cred.Expiry.Format(time.RFC3339),
	}).Info("Authenticated")

	return cred, nil
}

// Logout deletes the active credential
func (c *AuthController) Logout() error {
	if err := c.db.ClearCredential(); err != nil {
		return err
	}
	c.watchlist.Clear()
	c.logger.Info("Logged out")
	return nil
}

// RemoveExpired drops the stored credential when it has expired. Runs at
// startup and periodically so the singleton invariant stays live.
func (c *AuthController) RemoveExpired() {
	removed, err := c.db.RemoveExpiredCredential(time.Now())
	if err != nil {
		c.logger.WithError(err).Error("Failed to remove expired credential")
		return
	}
	if removed {
		c.watchlist.Clear()
		c.logger.Info("Removed expired credential")
	}
}

// LogState reports the stored authentication state at startup
func (c *AuthController) LogState() {
	cred, err := c.Active()
	if err != nil {
		c.logger.WithError(err).Error("Failed to load credential")
		return
	}
	if cred == nil {
		c.logger.Warn("No valid credential found. Authenticate through the management API before usage")
		return
	}
	c.logger.WithFields(logrus.Fields{
		"user_id":  cred.UserID,
		"username": cred.Username,
	}).Info("Loaded credential")
}
