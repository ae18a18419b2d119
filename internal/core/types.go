package core

import (
	"context"
	"time"
)

// Artist is a stored artist record.
type Artist struct {
	ID             string
	Name           string
	NormalizedName string
	Description    string
	ImageURL       string
	Genres         []string
	SpotifyID      string
	WikiExtract    string
	WikiURL        string
	IsFestival     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewArtist carries the caller-supplied fields of an artist to create.
type NewArtist struct {
	Name        string
	Description string
	ImageURL    string
	Genres      []string
	IsFestival  bool
}

// ArtistEnrichment holds data gathered from external sources for an artist.
// Empty fields leave the stored value untouched.
type ArtistEnrichment struct {
	Description string
	ImageURL    string
	Genres      []string
	SpotifyID   string
	WikiExtract string
	WikiURL     string
}

// Song is a stored track belonging to an artist.
type Song struct {
	ID         string
	ArtistID   string
	Title      string
	AlbumName  string
	Duration   time.Duration
	PreviewURL string
	SpotifyID  string
	ITunesURL  string
	CreatedAt  time.Time
}

// PreviewTrack is a track returned by the preview-audio catalog.
type PreviewTrack struct {
	ArtistName  string
	TrackName   string
	AlbumName   string
	PreviewURL  string
	ArtworkURL  string
	Duration    time.Duration
	TrackURL    string
	Genre       string
	ReleaseDate string
}

// HasPreview reports whether the track carries a playable preview.
func (t PreviewTrack) HasPreview() bool {
	return t.PreviewURL != ""
}

// CatalogArtist is an artist from the streaming catalog.
type CatalogArtist struct {
	ID         string
	Name       string
	Genres     []string
	ImageURL   string
	Popularity int
	URL        string
}

// CatalogTrack is a track from the streaming catalog.
type CatalogTrack struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	Duration   time.Duration
	PreviewURL string
	URL        string
}

// WikiSummary is an encyclopedia page summary.
type WikiSummary struct {
	Title       string
	Description string
	Extract     string
	ImageURL    string
	PageURL     string
	Language    string
}

// AIDescription is a generated artist description.
type AIDescription struct {
	ID         string
	ArtistID   string
	Content    string
	Language   string
	Provider   string
	Model      string
	TokensUsed int
	CreatedAt  time.Time
}

// Favorite is a user's saved artist.
type Favorite struct {
	UserID    string
	ArtistID  string
	Tags      []string
	Notes     string
	CreatedAt time.Time
	Artist    *Artist
}

// SearchRecord is a recorded search request.
type SearchRecord struct {
	UserID       string
	Query        string
	SearchType   string
	ResultsCount int
	CreatedAt    time.Time
}

// PopularSearch aggregates recorded searches by query.
type PopularSearch struct {
	Query string
	Count int
}

// StreamingCatalog looks up artists in the streaming catalog.
type StreamingCatalog interface {
	FindArtist(ctx context.Context, name string) (*CatalogArtist, error)
	TopTracks(ctx context.Context, artistID string, limit int) ([]CatalogTrack, error)
}

// Encyclopedia fetches page summaries.
type Encyclopedia interface {
	Summary(ctx context.Context, title, lang string) (*WikiSummary, error)
}

// DescriptionGenerator writes artist descriptions.
type DescriptionGenerator interface {
	DescribeArtist(ctx context.Context, req DescribeRequest) (*AIDescription, error)
}

// DescribeRequest is the input to DescriptionGenerator.
type DescribeRequest struct {
	ArtistName string
	Extract    string
	Genres     []string
	Language   string
}

// DedupStore remembers keys that were already processed.
type DedupStore interface {
	Has(key string) bool
	Add(key string)
	Remove(key string)
	Load(keys []string)
	Size() int
	Clear()
}
