package plex

import (
	"encoding/json"
	"fmt"

	"anifunnel/internal/models"
)

// Webhook represents a Plex webhook payload
type Webhook struct {
	Event    string          `json:"event"`
	Account  WebhookAccount  `json:"Account"`
	Metadata WebhookMetadata `json:"Metadata"`
}

// WebhookAccount identifies the Plex account the event belongs to
type WebhookAccount struct {
	Name string `json:"title"`
}

// WebhookMetadata describes the played item
type WebhookMetadata struct {
	MediaType     string `json:"type"`
	Title         string `json:"grandparentTitle"`
	SeasonNumber  int    `json:"parentIndex"`
	EpisodeNumber int    `json:"index"`
}

// WebhookState classifies whether a webhook should be processed
type WebhookState int

const (
	StateActionable WebhookState = iota
	StateNonScrobbleEvent
	StateIncorrectType
	StateIncorrectSeason
	StateIncompleteMetadata
)

func (s WebhookState) String() string {
	switch s {
	case StateActionable:
		return "actionable"
	case StateNonScrobbleEvent:
		return "non-scrobble event"
	case StateIncorrectType:
		return "not an episode"
	case StateIncorrectSeason:
		return "special season"
	case StateIncompleteMetadata:
		return "incomplete metadata"
	default:
		return "unknown"
	}
}

// ParseWebhook decodes the JSON payload field of a Plex webhook request
func ParseWebhook(payload []byte) (*Webhook, error) {
	var webhook Webhook
	if err := json.Unmarshal(payload, &webhook); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	return &webhook, nil
}

// State classifies the webhook. Only scrobble events for episodes from a
// regular season are actionable; specials (season 0) never are. Seasons past
// the first are matched like any other, the matcher handles season suffixes.
func (w *Webhook) State() WebhookState {
	if w.Event != "media.scrobble" {
		return StateNonScrobbleEvent
	}
	if w.Metadata.MediaType != "episode" {
		return StateIncorrectType
	}
	if w.Metadata.SeasonNumber < 1 {
		return StateIncorrectSeason
	}
	if w.Metadata.Title == "" || w.Metadata.EpisodeNumber < 1 {
		return StateIncompleteMetadata
	}
	return StateActionable
}

// Incoming converts the webhook into the engine's event representation
func (w *Webhook) Incoming() *models.IncomingEvent {
	return &models.IncomingEvent{
		RawTitle:      w.Metadata.Title,
		SeasonNumber:  w.Metadata.SeasonNumber,
		EpisodeNumber: w.Metadata.EpisodeNumber,
		Account:       w.Account.Name,
	}
}
