package anilist

import (
	"errors"

	"anifunnel/internal/models"
)

// ErrInvalidToken indicates the stored token was rejected by AniList
var ErrInvalidToken = errors.New("invalid token")

// ErrNotFound indicates the targeted list entry no longer exists remotely
var ErrNotFound = errors.New("list entry not found")

// Viewer holds the authenticated AniList user
type Viewer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Wire types for the MediaListCollection query

type mediaTitle struct {
	Romaji        string `json:"romaji"`
	English       string `json:"english"`
	Native        string `json:"native"`
	UserPreferred string `json:"userPreferred"`
}

type mediaItem struct {
	ID       int64      `json:"id"`
	Title    mediaTitle `json:"title"`
	Synonyms []string   `json:"synonyms"`
}

type listEntry struct {
	ID       int64     `json:"id"`
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
	Media    mediaItem `json:"media"`
}

type listGroup struct {
	Entries []listEntry `json:"entries"`
}

type mediaListCollection struct {
	Lists []listGroup `json:"lists"`
}

type viewerData struct {
	Viewer Viewer `json:"Viewer"`
}

type watchingListData struct {
	MediaListCollection mediaListCollection `json:"MediaListCollection"`
}

type saveMediaListEntry struct {
	Progress int `json:"progress"`
}

type progressData struct {
	SaveMediaListEntry saveMediaListEntry `json:"SaveMediaListEntry"`
}

// convertEntries flattens the grouped query response into tracked entries.
// The primary title comes first, followed by every distinct alternate form.
func convertEntries(collection mediaListCollection) []*models.TrackedEntry {
	var entries []*models.TrackedEntry
	for _, group := range collection.Lists {
		for _, item := range group.Entries {
			status := models.ListStatus(item.Status)
			if status != models.ListStatusRepeating {
				status = models.ListStatusCurrent
			}

			titles := make([]string, 0, 4+len(item.Media.Synonyms))
			seen := make(map[string]bool)
			candidates := []string{
				item.Media.Title.UserPreferred,
				item.Media.Title.Romaji,
				item.Media.Title.English,
				item.Media.Title.Native,
			}
			candidates = append(candidates, item.Media.Synonyms...)
			for _, title := range candidates {
				if title == "" || seen[title] {
					continue
				}
				seen[title] = true
				titles = append(titles, title)
			}

			entries = append(entries, &models.TrackedEntry{
				MediaID:  item.Media.ID,
				EntryID:  item.ID,
				Titles:   titles,
				Progress: item.Progress,
				Status:   status,
			})
		}
	}
	return entries
}
