package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// trailingMarkers match decorative suffixes that commonly differ between the
// Plex library naming and AniList titles: year markers, season/cour/part
// markers and a lone trailing digit. Parentheses are already folded to
// whitespace by the time these run.
var trailingMarkers = []*regexp.Regexp{
	regexp.MustCompile(` (19|20)\d{2}$`),
	regexp.MustCompile(` \d*(1st|2nd|3rd|[04-9]th) season$`),
	regexp.MustCompile(` season \d+$`),
	regexp.MustCompile(` cour \d+$`),
	regexp.MustCompile(` part \d+$`),
	regexp.MustCompile(` \d$`),
}

// Normalize reduces a raw title to its canonical comparable form: NFC
// normalization, locale-independent case folding, punctuation and symbol
// runes folded to whitespace, decorative trailing markers stripped, and the
// remainder collapsed into a single-space token sequence. The transform is
// total over arbitrary Unicode input and idempotent.
func Normalize(title string) string {
	s := norm.NFC.String(title)
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	// Strip trailing markers until nothing changes; stacked suffixes like
	// "Season 2 (2023)" need more than one pass.
	for {
		stripped := s
		for _, re := range trailingMarkers {
			stripped = re.ReplaceAllString(stripped, "")
		}
		stripped = strings.TrimSpace(stripped)
		if stripped == s {
			break
		}
		s = stripped
	}

	return s
}
