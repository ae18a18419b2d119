// Package preview finds playable audio previews for tracks in a catalog that
// shares no identifiers with the streaming catalog.
package preview

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"fujirock/internal/core"
)

// Catalog searches the preview-audio catalog.
type Catalog interface {
	SearchTracks(ctx context.Context, term string, limit int) ([]core.PreviewTrack, error)
}

// Strategy names how a match was found.
type Strategy string

const (
	StrategyDirect Strategy = "direct"
	StrategyFuzzy  Strategy = "fuzzy"
)

// Match is an accepted catalog track.
type Match struct {
	Track    core.PreviewTrack
	Strategy Strategy
	// Score is set for fuzzy matches only.
	Score float64
}

// Weights holds the fallback scoring constants.
type Weights struct {
	ArtistContainment float64
	ArtistPartial     float64
	TrackContainment  float64
	TrackPartial      float64
	PreviewBonus      float64
	// Accept is the score a fallback candidate must exceed.
	Accept float64
	// MinPartialWordLen is the shortest track word, in runes, that counts
	// toward a partial track match.
	MinPartialWordLen int
}

// DefaultWeights returns the production fallback constants.
func DefaultWeights() Weights {
	return Weights{
		ArtistContainment: 0.4,
		ArtistPartial:     0.2,
		TrackContainment:  0.6,
		TrackPartial:      0.3,
		PreviewBonus:      0.1,
		Accept:            0.3,
		MinPartialWordLen: 3,
	}
}

// Matcher matches (artist, track) pairs against a Catalog.
type Matcher struct {
	catalog Catalog
	weights Weights
	limit   int
	logger  *zap.Logger
}

// NewMatcher creates a matcher that asks the catalog for limit results on
// the direct search and twice as many on the fallback.
func NewMatcher(catalog Catalog, weights Weights, limit int, logger *zap.Logger) *Matcher {
	if limit <= 0 {
		limit = core.DefaultPreviewSearchLimit
	}
	return &Matcher{
		catalog: catalog,
		weights: weights,
		limit:   limit,
		logger:  logger,
	}
}

// Match looks up a track. The direct search uses "artist track" and takes
// the first result with a preview, else the first result. Only when it
// returns nothing does a wider search by track title run, accepting the best
// scored candidate above the threshold. A nil Match with a nil error means
// the catalog has no usable track.
func (m *Matcher) Match(ctx context.Context, artist, track string) (*Match, error) {
	artist = strings.TrimSpace(artist)
	track = strings.TrimSpace(track)

	term := strings.TrimSpace(artist + " " + track)
	if term == "" {
		return nil, nil
	}

	results, err := m.catalog.SearchTracks(ctx, term, m.limit)
	if err != nil {
		return nil, fmt.Errorf("searching preview catalog for %q: %w", term, err)
	}

	if len(results) > 0 {
		chosen := firstWithPreview(results)
		m.logger.Debug("Direct preview match",
			zap.String("artist", artist),
			zap.String("track", track),
			zap.String("matched_track", chosen.TrackName),
			zap.String("matched_artist", chosen.ArtistName),
			zap.Bool("has_preview", chosen.HasPreview()))
		return &Match{Track: chosen, Strategy: StrategyDirect}, nil
	}

	if artist == "" || track == "" {
		m.logger.Debug("No preview match", zap.String("term", term))
		return nil, nil
	}

	results, err = m.catalog.SearchTracks(ctx, track, m.limit*2)
	if err != nil {
		return nil, fmt.Errorf("searching preview catalog for %q: %w", track, err)
	}

	best, score, ok := m.bestFuzzy(results, artist, track)
	if !ok {
		m.logger.Debug("No fuzzy preview match",
			zap.String("artist", artist),
			zap.String("track", track),
			zap.Int("candidates", len(results)))
		return nil, nil
	}

	m.logger.Debug("Fuzzy preview match",
		zap.String("artist", artist),
		zap.String("track", track),
		zap.String("matched_track", best.TrackName),
		zap.String("matched_artist", best.ArtistName),
		zap.Float64("score", score))

	return &Match{Track: best, Strategy: StrategyFuzzy, Score: score}, nil
}

// Score rates how well a catalog track fits the target artist and track.
func (m *Matcher) Score(candidate core.PreviewTrack, artist, track string) float64 {
	w := m.weights
	score := 0.0

	resultArtist := strings.ToLower(candidate.ArtistName)
	targetArtist := strings.ToLower(artist)
	switch {
	case containsEither(resultArtist, targetArtist):
		score += w.ArtistContainment
	case anyWordIn(resultArtist, strings.Fields(targetArtist), 1):
		score += w.ArtistPartial
	}

	resultTrack := strings.ToLower(candidate.TrackName)
	targetTrack := strings.ToLower(track)
	switch {
	case containsEither(resultTrack, targetTrack):
		score += w.TrackContainment
	case anyWordIn(resultTrack, strings.Fields(targetTrack), w.MinPartialWordLen):
		score += w.TrackPartial
	}

	if candidate.HasPreview() {
		score += w.PreviewBonus
	}

	return score
}

func (m *Matcher) bestFuzzy(results []core.PreviewTrack, artist, track string) (core.PreviewTrack, float64, bool) {
	var best core.PreviewTrack
	bestScore := 0.0
	found := false

	for _, r := range results {
		// Strictly greater keeps the earliest candidate on ties.
		if score := m.Score(r, artist, track); score > bestScore {
			best, bestScore, found = r, score, true
		}
	}

	if !found || bestScore <= m.weights.Accept {
		return core.PreviewTrack{}, 0, false
	}
	return best, bestScore, true
}

func firstWithPreview(results []core.PreviewTrack) core.PreviewTrack {
	for _, r := range results {
		if r.HasPreview() {
			return r
		}
	}
	return results[0]
}

// containsEither reports containment in either direction. An empty side never
// matches.
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func anyWordIn(s string, words []string, minLen int) bool {
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minLen && strings.Contains(s, w) {
			return true
		}
	}
	return false
}
