package handlers

import (
	"encoding/json"
	"net/http"

	"anifunnel/internal/controllers"
	"anifunnel/internal/models"
	"anifunnel/internal/services/plex"
	"github.com/sirupsen/logrus"
)

// WebhookHandler handles Plex webhook deliveries. Plex posts a multipart
// form with the event JSON in the payload field. The response is always
// 200 so Plex never retries; the processing outcome is internal.
type WebhookHandler struct {
	scrobbleCtrl *controllers.ScrobbleController
	logger       *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(scrobbleCtrl *controllers.ScrobbleController, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		scrobbleCtrl: scrobbleCtrl,
		logger:       logger,
	}
}

// ServeHTTP handles the webhook endpoint
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respond := func(outcome models.Outcome) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"outcome": string(outcome)})
	}

	payload := r.FormValue("payload")
	if payload == "" {
		h.logger.Warn("Received webhook without payload field")
		respond(models.OutcomeError)
		return
	}

	webhook, err := plex.ParseWebhook([]byte(payload))
	if err != nil {
		h.logger.WithError(err).Warn("Dropping malformed webhook payload")
		respond(models.OutcomeError)
		return
	}

	if state := webhook.State(); state != plex.StateActionable {
		h.logger.WithFields(logrus.Fields{
			"event":  webhook.Event,
			"reason": state.String(),
		}).Debug("Webhook is not actionable")
		respond(models.OutcomeSkipped)
		return
	}

	respond(h.scrobbleCtrl.HandleEvent(r.Context(), webhook.Incoming()))
}
