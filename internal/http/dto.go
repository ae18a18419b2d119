package http

import (
	"time"

	"fujirock/internal/core"
	"fujirock/internal/enrich"
	"fujirock/internal/resolver"
)

// envelope is the body of every API response.
type envelope struct {
	Success               bool           `json:"success"`
	Data                  any            `json:"data,omitempty"`
	Error                 string         `json:"error,omitempty"`
	Message               string         `json:"message,omitempty"`
	MatchType             string         `json:"match_type,omitempty"`
	SimilarityScore       *float64       `json:"similarity_score,omitempty"`
	MatchedName           string         `json:"matched_name,omitempty"`
	ExistingID            string         `json:"existing_id,omitempty"`
	AlternativeCandidates []candidateDTO `json:"alternative_candidates,omitempty"`
	SearchType            string         `json:"search_type,omitempty"`
	Pagination            *paginationDTO `json:"pagination,omitempty"`
}

type artistDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Genres      []string  `json:"genres"`
	SpotifyID   string    `json:"spotify_id,omitempty"`
	WikiExtract string    `json:"wiki_extract,omitempty"`
	WikiURL     string    `json:"wiki_url,omitempty"`
	IsFestival  bool      `json:"is_festival_artist"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toArtistDTO(a *core.Artist) artistDTO {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return artistDTO{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Genres:      genres,
		SpotifyID:   a.SpotifyID,
		WikiExtract: a.WikiExtract,
		WikiURL:     a.WikiURL,
		IsFestival:  a.IsFestival,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type candidateDTO struct {
	Artist          artistDTO `json:"artist"`
	SimilarityScore float64   `json:"similarity_score"`
	Tier            string    `json:"tier"`
}

func toCandidateDTOs(cs []resolver.Candidate) []candidateDTO {
	out := make([]candidateDTO, len(cs))
	for i := range cs {
		out[i] = candidateDTO{
			Artist:          toArtistDTO(&cs[i].Artist),
			SimilarityScore: cs[i].Score,
			Tier:            cs[i].Tier.String(),
		}
	}
	return out
}

type songDTO struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AlbumName  string `json:"album_name,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	SpotifyID  string `json:"spotify_id,omitempty"`
	ITunesURL  string `json:"itunes_url,omitempty"`
}

func toSongDTOs(songs []core.Song) []songDTO {
	out := make([]songDTO, len(songs))
	for i, s := range songs {
		out[i] = songDTO{
			ID:         s.ID,
			Title:      s.Title,
			AlbumName:  s.AlbumName,
			DurationMS: s.Duration.Milliseconds(),
			PreviewURL: s.PreviewURL,
			SpotifyID:  s.SpotifyID,
			ITunesURL:  s.ITunesURL,
		}
	}
	return out
}

type aiDescriptionDTO struct {
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type artistDetailDTO struct {
	artistDTO
	Songs         []songDTO         `json:"songs"`
	AIDescription *aiDescriptionDTO `json:"ai_description,omitempty"`
}

type paginationDTO struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

type previewDTO struct {
	ArtistName string  `json:"artist_name"`
	TrackName  string  `json:"track_name"`
	AlbumName  string  `json:"album_name,omitempty"`
	PreviewURL string  `json:"preview_url,omitempty"`
	ArtworkURL string  `json:"artwork_url,omitempty"`
	TrackURL   string  `json:"track_url,omitempty"`
	DurationMS int64   `json:"duration_ms,omitempty"`
	Strategy   string  `json:"strategy"`
	Score      float64 `json:"score,omitempty"`
}

type favoriteDTO struct {
	ArtistID  string     `json:"artist_id"`
	Tags      []string   `json:"tags"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Artist    *artistDTO `json:"artist,omitempty"`
}

func toFavoriteDTO(f *core.Favorite) favoriteDTO {
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	dto := favoriteDTO{ArtistID: f.ArtistID, Tags: tags, Notes: f.Notes, CreatedAt: f.CreatedAt}
	if f.Artist != nil {
		a := toArtistDTO(f.Artist)
		dto.Artist = &a
	}
	return dto
}

type popularSearchDTO struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type enrichReportDTO struct {
	ArtistID        string            `json:"artist_id"`
	WikiFound       bool              `json:"wiki_found"`
	CatalogFound    bool              `json:"catalog_found"`
	TracksStored    int               `json:"tracks_stored"`
	PreviewsMatched int               `json:"previews_matched"`
	PreviewsSkipped int               `json:"previews_skipped"`
	Description     bool              `json:"description"`
	Errors          map[string]string `json:"errors,omitempty"`
}

func toEnrichReportDTO(r *enrich.Report) enrichReportDTO {
	return enrichReportDTO{
		ArtistID:        r.ArtistID,
		WikiFound:       r.WikiFound,
		CatalogFound:    r.CatalogFound,
		TracksStored:    r.TracksStored,
		PreviewsMatched: r.PreviewsMatched,
		PreviewsSkipped: r.PreviewsSkipped,
		Description:     r.Description,
		Errors:          r.Errors,
	}
}

type createArtistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Genres      []string `json:"genres"`
	IsFestival  bool     `json:"is_festival_artist"`
}

type favoriteRequest struct {
	Tags  []string `json:"tags"`
	Notes string   `json:"notes"`
}
