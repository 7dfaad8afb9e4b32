package models

import "time"

// Override is a user-defined matching rule pinned to one series. A non-empty
// TitleOverride disables fuzzy matching for that series and routes any event
// whose title matches it exactly. EpisodeOffset shifts incoming episode
// numbers before the update decision.
type Override struct {
	MediaID       int64  `boltholdKey:"MediaID"`
	TitleOverride string `boltholdIndex:"TitleOverride"`
	EpisodeOffset int

	UpdatedAt time.Time
}

// IsEmpty reports whether the override carries no rule at all. Empty
// overrides are deleted rather than stored.
func (o *Override) IsEmpty() bool {
	return o.TitleOverride == "" && o.EpisodeOffset == 0
}
