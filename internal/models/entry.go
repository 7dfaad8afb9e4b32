package models

// TrackedEntry represents one item from the user's remote watching list.
// Entries are owned by the watchlist cache: the whole slice is replaced on
// refresh and Progress is only ever mutated after a confirmed remote write.
type TrackedEntry struct {
	MediaID int64 // stable media identifier, unique within the list
	EntryID int64 // list entry identifier used by the progress mutation

	// Titles holds the primary title followed by all alternate forms
	// (romaji, english, native, synonyms), in that order
	Titles []string

	Progress int
	Status   ListStatus
}

// Title returns the primary (user preferred) title
func (e *TrackedEntry) Title() string {
	if len(e.Titles) == 0 {
		return ""
	}
	return e.Titles[0]
}

// IncomingEvent is the normalized form of a playback-completion notification.
// It is ephemeral and never persisted.
type IncomingEvent struct {
	RawTitle      string
	SeasonNumber  int // informational only, matching is always multi-season
	EpisodeNumber int
	Account       string
}
