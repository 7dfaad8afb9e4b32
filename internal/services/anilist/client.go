package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"anifunnel/internal/models"
	"github.com/sirupsen/logrus"
)

const apiURL = "https://graphql.anilist.co/"

// Client handles communication with the AniList GraphQL API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new AniList API client
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    apiURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type graphqlRequest struct {
	Query     string      `json:"query"`
	Variables interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// doQuery performs an authenticated GraphQL request and decodes the data
// payload into result
func (c *Client) doQuery(ctx context.Context, token, query string, variables interface{}, result interface{}) error {
	jsonData, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	c.logger.WithField("url", c.baseURL).Debug("Making AniList API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if len(gqlResp.Errors) > 0 {
		for _, gqlErr := range gqlResp.Errors {
			if strings.EqualFold(gqlErr.Message, "invalid token") {
				return ErrInvalidToken
			}
			if gqlErr.Status == http.StatusNotFound {
				return ErrNotFound
			}
		}
		return fmt.Errorf("API request failed: %s", gqlResp.Errors[0].Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Viewer validates a token against AniList and returns the owning user
func (c *Client) Viewer(ctx context.Context, token string) (*Viewer, error) {
	var data viewerData
	if err := c.doQuery(ctx, token, viewerQuery, nil, &data); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":  data.Viewer.ID,
		"username": data.Viewer.Name,
	}).Debug("Retrieved AniList viewer")

	return &data.Viewer, nil
}

// WatchingList fetches the user's CURRENT and REPEATING list entries
func (c *Client) WatchingList(ctx context.Context, token string, userID int64) ([]*models.TrackedEntry, error) {
	variables := map[string]int64{"user_id": userID}

	var data watchingListData
	if err := c.doQuery(ctx, token, watchingListQuery, variables, &data); err != nil {
		return nil, err
	}

	entries := convertEntries(data.MediaListCollection)
	c.logger.WithField("count", len(entries)).Debug("Retrieved watching list")
	return entries, nil
}

// UpdateProgress sets the progress of a list entry. The write is only
// considered successful when AniList echoes the requested value back.
func (c *Client) UpdateProgress(ctx context.Context, token string, entryID int64, progress int) error {
	variables := map[string]interface{}{
		"id":       entryID,
		"progress": progress,
	}

	var data progressData
	if err := c.doQuery(ctx, token, progressMutation, variables, &data); err != nil {
		return err
	}

	if data.SaveMediaListEntry.Progress != progress {
		return fmt.Errorf("progress update not confirmed: requested %d, got %d",
			progress, data.SaveMediaListEntry.Progress)
	}

	return nil
}
