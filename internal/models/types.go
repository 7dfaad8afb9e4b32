package models

// ListStatus represents the remote list status of a tracked entry
type ListStatus string

const (
	ListStatusCurrent   ListStatus = "CURRENT"
	ListStatusRepeating ListStatus = "REPEATING"
)

// Outcome represents the terminal decision for a processed scrobble event
type Outcome string

const (
	OutcomeAdvance         Outcome = "advance"         // remote progress incremented by one
	OutcomeNoAdvance       Outcome = "no_advance"      // episode already recorded (or behind)
	OutcomeGap             Outcome = "gap"             // episode skips ahead of progress+1
	OutcomeUnmatched       Outcome = "unmatched"       // no list entry scored above the threshold
	OutcomeAmbiguous       Outcome = "ambiguous"       // multiple entries tied for the best score
	OutcomeUnauthenticated Outcome = "unauthenticated" // no valid credential stored
	OutcomeSkipped         Outcome = "skipped"         // filtered before matching (account, media type)
	OutcomeError           Outcome = "error"           // remote or storage failure, event abandoned
)
