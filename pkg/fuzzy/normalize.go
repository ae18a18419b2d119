// Package fuzzy implements the name normalization, similarity scoring and
// candidate ranking used to resolve free-text artist and track names.
package fuzzy

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	featRegex       = regexp.MustCompile(`(?i)\s*[\(\[]?\s*\b(?:feat\.?|ft\.?|featuring)\s+[^\)\]]*[\)\]]?\s*`)
	versionRegex    = regexp.MustCompile(`(?i)\s*[\(\[-]\s*(?:\d{4}\s+)?(?:remaster(?:ed)?|deluxe|extended|radio edit|live|mono|stereo)\b.*$`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Normalize case-folds text, removes every rune that is not a letter, number,
// combining mark, underscore or whitespace, collapses whitespace runs and
// trims. Scripts other than Latin survive untouched. Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(b.String(), " "))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// Words splits normalized text into tokens.
func Words(normalized string) []string {
	return strings.Fields(normalized)
}

// QueryCleaner prepares names for outbound catalog queries. Unlike Normalize
// it drops decorations such as "feat." credits and remaster suffixes that
// catalogs spell inconsistently.
type QueryCleaner struct{}

// NewQueryCleaner returns a QueryCleaner.
func NewQueryCleaner() *QueryCleaner {
	return &QueryCleaner{}
}

// Artist removes featured-artist credits from an artist name.
func (c *QueryCleaner) Artist(artist string) string {
	artist = featRegex.ReplaceAllString(artist, " ")
	return collapse(artist)
}

// Title removes featured-artist credits and version suffixes from a track
// title, keeping the original casing so catalog relevance is unaffected.
func (c *QueryCleaner) Title(title string) string {
	cleaned := featRegex.ReplaceAllString(title, " ")
	cleaned = versionRegex.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimRight(collapse(cleaned), " -([")
	if cleaned == "" {
		return collapse(title)
	}
	return cleaned
}

// DurationTolerance compares two track durations. Durations within 30s score
// 1.0, falling linearly to 0.0 at a two minute difference. A zero duration is
// treated as unknown and always scores 1.0.
func (c *QueryCleaner) DurationTolerance(d1, d2 time.Duration) float64 {
	if d1 <= 0 || d2 <= 0 {
		return 1.0
	}

	diff := d1 - d2
	if diff < 0 {
		diff = -diff
	}

	const (
		tolerance = 30 * time.Second
		maxDiff   = 2 * time.Minute
	)
	if diff <= tolerance {
		return 1.0
	}
	if diff >= maxDiff {
		return 0.0
	}

	return 1.0 - float64(diff-tolerance)/float64(maxDiff-tolerance)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
