package fuzzy

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Weights holds the scoring constants. They are hand-tuned and exposed so
// deployments can adjust them without code changes.
type Weights struct {
	// Containment is returned when one normalized name contains the other.
	Containment float64
	// LevenshteinAccept is the edit-distance similarity above which the
	// score is returned without consulting word overlap.
	LevenshteinAccept float64
	// WordOverlapWeight scales the word-overlap ratio.
	WordOverlapWeight float64
	// WordOverlapAccept is the blended score above which word overlap wins.
	WordOverlapAccept float64
	// SecondaryWeight scales the secondary-text bonus in ranking.
	SecondaryWeight float64
	// SecondaryMinQueryLen is the minimum query length, in runes, for the
	// secondary-text bonus to apply.
	SecondaryMinQueryLen int
	// HighThreshold and MediumThreshold bound the High and Medium tiers.
	HighThreshold   float64
	MediumThreshold float64
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Containment:          0.8,
		LevenshteinAccept:    0.7,
		WordOverlapWeight:    0.6,
		WordOverlapAccept:    0.5,
		SecondaryWeight:      0.3,
		SecondaryMinQueryLen: 3,
		HighThreshold:        0.8,
		MediumThreshold:      0.6,
	}
}

// Scorer computes a similarity in [0, 1] between two names.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score compares a query against a candidate name. Signals are evaluated in
// order: exact match, containment, edit distance, word overlap. The result is
// symmetric in its arguments.
func (s *Scorer) Score(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0.0
	}

	return s.ScoreNormalized(Normalize(query), Normalize(candidate))
}

// ScoreNormalized is Score for inputs that have already been normalized.
// Two empty normalized strings compare equal.
func (s *Scorer) ScoreNormalized(a, b string) float64 {
	if a == b {
		return 1.0
	}

	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return s.weights.Containment
	}

	lev := LevenshteinSimilarity(a, b)
	if lev > s.weights.LevenshteinAccept {
		return lev
	}

	blended := max(lev, WordOverlap(a, b)*s.weights.WordOverlapWeight)
	if blended > s.weights.WordOverlapAccept {
		return blended
	}

	return lev
}

// LevenshteinSimilarity returns 1 - distance/max(len) over runes.
func LevenshteinSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}

	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// WordOverlap returns the share of tokens that match a token on the other
// side by equality or containment. Matches are counted from both sides and
// the smaller count is divided by the larger word count, which keeps the
// measure symmetric.
func WordOverlap(a, b string) float64 {
	wa, wb := Words(a), Words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0.0
	}

	matched := min(countMatches(wa, wb), countMatches(wb, wa))

	return float64(matched) / float64(max(len(wa), len(wb)))
}

func countMatches(from, against []string) int {
	count := 0
	for _, w := range from {
		for _, o := range against {
			if w == o || strings.Contains(w, o) || strings.Contains(o, w) {
				count++
				break
			}
		}
	}
	return count
}
