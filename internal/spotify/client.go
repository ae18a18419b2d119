// Package spotify looks up artists and their top tracks in the Spotify catalog.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"fujirock/internal/core"
	"fujirock/pkg/fuzzy"
)

const (
	// MaxArtistSearchResults limits the artist search used for matching.
	MaxArtistSearchResults = 10
	// MinArtistMatchTier is the lowest tier FindArtist accepts.
	MinArtistMatchTier = fuzzy.TierMedium
)

// ErrDisabled is returned when no credentials are configured.
var ErrDisabled = fmt.Errorf("spotify: %w", core.ErrNotConfigured)

type Client struct {
	api    *spotify.Client
	ranker *fuzzy.Ranker
	market string
	logger *zap.Logger
}

// NewClient creates a client authenticated with the client-credentials flow.
// The token is fetched on the first request.
func NewClient(ctx context.Context, cfg core.SpotifyConfig, ranker *fuzzy.Ranker, logger *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	api := spotify.New(creds.Client(ctx), spotify.WithRetry(true))
	return NewWithAPI(api, cfg.Market, ranker, logger), nil
}

// NewWithAPI wraps an existing API client.
func NewWithAPI(api *spotify.Client, market string, ranker *fuzzy.Ranker, logger *zap.Logger) *Client {
	return &Client{
		api:    api,
		ranker: ranker,
		market: market,
		logger: logger,
	}
}

// FindArtist searches the catalog and returns the artist whose name best
// matches name. Candidates below MinArtistMatchTier are rejected with
// core.ErrNotFound.
func (c *Client) FindArtist(ctx context.Context, name string) (*core.CatalogArtist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrNotFound
	}

	opts := []spotify.RequestOption{spotify.Limit(MaxArtistSearchResults)}
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	results, err := c.api.Search(ctx, name, spotify.SearchTypeArtist, opts...)
	if err != nil {
		return nil, fmt.Errorf("artist search failed: %w", err)
	}
	if results.Artists == nil || len(results.Artists.Artists) == 0 {
		return nil, fmt.Errorf("spotify artist %q: %w", name, core.ErrNotFound)
	}

	artists := results.Artists.Artists
	candidates := make([]fuzzy.Candidate, len(artists))
	for i := range artists {
		candidates[i] = fuzzy.Candidate{ID: string(artists[i].ID), Text: artists[i].Name}
	}

	best, ok := c.ranker.Rank(name, candidates, fuzzy.Page{Limit: 1}).Best()
	if !ok || best.Tier < MinArtistMatchTier {
		c.logger.Debug("No confident artist match",
			zap.String("name", name),
			zap.Int("candidates", len(artists)))
		return nil, fmt.Errorf("spotify artist %q: %w", name, core.ErrNotFound)
	}

	artist := convertArtist(&artists[best.Index])
	c.logger.Debug("Artist matched",
		zap.String("name", name),
		zap.String("matched", artist.Name),
		zap.String("id", artist.ID),
		zap.Float64("score", best.Score),
		zap.Stringer("tier", best.Tier))

	return &artist, nil
}

// TopTracks returns up to limit of the artist's most popular tracks in the
// configured market.
func (c *Client) TopTracks(ctx context.Context, artistID string, limit int) ([]core.CatalogTrack, error) {
	if artistID == "" {
		return nil, errors.New("artist id is empty")
	}

	market := c.market
	if market == "" {
		market = "US"
	}

	tracks, err := c.api.GetArtistsTopTracks(ctx, spotify.ID(artistID), market)
	if err != nil {
		return nil, fmt.Errorf("failed to get top tracks: %w", err)
	}

	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}

	out := make([]core.CatalogTrack, len(tracks))
	for i := range tracks {
		out[i] = convertTrack(&tracks[i])
	}
	return out, nil
}

func convertArtist(a *spotify.FullArtist) core.CatalogArtist {
	var image string
	if len(a.Images) > 0 {
		image = a.Images[0].URL
	}
	return core.CatalogArtist{
		ID:         string(a.ID),
		Name:       a.Name,
		Genres:     a.Genres,
		ImageURL:   image,
		Popularity: int(a.Popularity),
		URL:        a.ExternalURLs["spotify"],
	}
}

func convertTrack(track *spotify.FullTrack) core.CatalogTrack {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	return core.CatalogTrack{
		ID:         string(track.ID),
		Title:      track.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      track.Album.Name,
		Duration:   time.Duration(track.Duration) * time.Millisecond,
		PreviewURL: track.PreviewURL,
		URL:        track.ExternalURLs["spotify"],
	}
}
