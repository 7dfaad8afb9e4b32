package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"

	"anifunnel/internal/models"
	"github.com/agnivade/levenshtein"
)

const (
	// AcceptThreshold is the minimum similarity score for a fuzzy match
	AcceptThreshold = 0.8

	// reorderPenalty is subtracted from scores computed on token-sorted
	// forms, so a same-order match always wins over a reordered one
	reorderPenalty = 0.05

	// subtitlePenalty is subtracted from scores computed on the shared
	// prefix, which tolerates subtitle and version suffixes
	subtitlePenalty = 0.1

	// minPrefixRunes guards the prefix comparison against trivially short
	// titles matching everything they prefix
	minPrefixRunes = 8
)

// Result is the outcome of matching an incoming title against the watching
// list. Entry is nil when no candidate reached the threshold or when the
// best score was tied between entries; the tie is reported via Ambiguous.
type Result struct {
	Entry     *models.TrackedEntry
	Score     float64
	Ambiguous bool
}

// Match resolves a raw incoming title to a tracked entry.
//
// An override with a title that normalizes to the same form as the incoming
// title short-circuits to its series with the maximum score. Entries that
// have a title override configured are reachable only that way and are never
// scored fuzzily. All remaining entries are scored by the best similarity
// across their alternate titles; the single best entry at or above the
// acceptance threshold wins, and a tie for the best score is ambiguous.
func Match(rawTitle string, entries []*models.TrackedEntry, overrides []*models.Override) Result {
	normalized := Normalize(rawTitle)
	if normalized == "" {
		return Result{}
	}

	overridden := make(map[int64]bool, len(overrides))
	var exactIDs []int64
	for _, o := range overrides {
		if o.TitleOverride == "" {
			continue
		}
		overridden[o.MediaID] = true
		if Normalize(o.TitleOverride) == normalized {
			exactIDs = append(exactIDs, o.MediaID)
		}
	}

	if len(exactIDs) > 1 {
		return Result{Score: 1, Ambiguous: true}
	}
	if len(exactIDs) == 1 {
		for _, entry := range entries {
			if entry.MediaID == exactIDs[0] {
				return Result{Entry: entry, Score: 1}
			}
		}
		// Override points at a series that is no longer on the list
		return Result{}
	}

	var (
		best      *models.TrackedEntry
		bestScore float64
		tied      bool
	)
	for _, entry := range entries {
		if overridden[entry.MediaID] {
			continue
		}
		if entry.Status != models.ListStatusCurrent && entry.Status != models.ListStatusRepeating {
			continue
		}

		score := 0.0
		for _, title := range entry.Titles {
			if s := similarity(normalized, Normalize(title)); s > score {
				score = s
			}
		}

		switch {
		case best != nil && score == bestScore:
			tied = true
		case score > bestScore:
			best, bestScore, tied = entry, score, false
		}
	}

	if best == nil || bestScore < AcceptThreshold {
		return Result{Score: bestScore}
	}
	if tied {
		return Result{Score: bestScore, Ambiguous: true}
	}
	return Result{Entry: best, Score: bestScore}
}

// similarity scores two normalized titles in the range [0, 1]
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	score := levenshteinSimilarity(a, b)

	// Tolerate word reordering ("Show: The Movie" vs "The Movie: Show")
	if s := levenshteinSimilarity(sortTokens(a), sortTokens(b)) - reorderPenalty; s > score {
		score = s
	}

	// Tolerate subtitle additions by comparing the shared-length prefix
	if s := prefixSimilarity(a, b) - subtitlePenalty; s > score {
		score = s
	}

	return score
}

func levenshteinSimilarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

func prefixSimilarity(a, b string) float64 {
	shortest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n < shortest {
		shortest = n
	}
	if shortest < minPrefixRunes {
		return 0
	}
	return levenshteinSimilarity(truncateRunes(a, shortest), truncateRunes(b, shortest))
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
