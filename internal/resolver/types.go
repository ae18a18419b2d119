package resolver

import (
	"context"

	"fujirock/internal/core"
	"fujirock/pkg/fuzzy"
)

// ArtistSource supplies candidate artists. GetArtistByName returns
// core.ErrNotFound on a miss.
type ArtistSource interface {
	ListArtists(ctx context.Context) ([]core.Artist, error)
	CountArtists(ctx context.Context) (int, error)
	GetArtistByName(ctx context.Context, name string) (*core.Artist, error)
}

// ArtistWriter persists new artists. InsertArtist returns
// core.ErrDuplicateName when the normalized name is taken.
type ArtistWriter interface {
	InsertArtist(ctx context.Context, in core.NewArtist) (*core.Artist, error)
}

// Store is the content store as seen by the resolver.
type Store interface {
	ArtistSource
	ArtistWriter
}

// MatchType tells how ResolveByName found its artist.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// SearchType summarizes the quality of a search for observability.
type SearchType string

const (
	SearchExact          SearchType = "exact"
	SearchHighSimilarity SearchType = "high_similarity"
	SearchFuzzy          SearchType = "fuzzy"
	SearchNoResults      SearchType = "fuzzy_no_results"
	SearchBrowse         SearchType = "browse"
)

// Candidate is a scored artist.
type Candidate struct {
	Artist core.Artist
	Score  float64
	Tier   fuzzy.Tier
}

// Duplicate describes the existing artist that blocked a creation.
type Duplicate struct {
	ExistingID  string
	MatchedName string
	Score       float64
	Tier        fuzzy.Tier
}

// CreateResult is the outcome of CreateArtist. Exactly one of Artist and
// Duplicate is set.
type CreateResult struct {
	Artist    *core.Artist
	Duplicate *Duplicate
}

// Resolution is the outcome of ResolveByName. Found is false when nothing
// scored above zero.
type Resolution struct {
	Found        bool
	Artist       *core.Artist
	MatchType    MatchType
	Score        float64
	Tier         fuzzy.Tier
	Alternatives []Candidate
}

// SearchResult is a page of ranked artists.
type SearchResult struct {
	Artists    []Candidate
	Total      int
	Offset     int
	Limit      int
	SearchType SearchType
	TopTier    fuzzy.Tier
	BestScore  float64
}

// Options tunes the service.
type Options struct {
	// DuplicateMinTier is the lowest tier that blocks a creation.
	// TierLow blocks on any positive similarity.
	DuplicateMinTier fuzzy.Tier
	AlternativeCount int
}

// DefaultOptions blocks creation on any positive similarity and reports five
// alternatives.
func DefaultOptions() Options {
	return Options{
		DuplicateMinTier: fuzzy.TierLow,
		AlternativeCount: core.DefaultAlternativeCount,
	}
}
