// Package itunes searches the iTunes Search API for tracks with audio previews.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fujirock/internal/core"
)

const maxResponseBytes = 2 * 1024 * 1024

// searchResponse represents the response from the iTunes search API.
type searchResponse struct {
	ResultCount int           `json:"resultCount"`
	Results     []trackResult `json:"results"`
}

// trackResult represents a song result from the iTunes search API.
type trackResult struct {
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	PreviewURL       string `json:"previewUrl"`
	ArtworkURL100    string `json:"artworkUrl100"`
	TrackTimeMillis  int64  `json:"trackTimeMillis"`
	TrackViewURL     string `json:"trackViewUrl"`
	PrimaryGenreName string `json:"primaryGenreName"`
	ReleaseDate      string `json:"releaseDate"`
}

// Client queries the iTunes Search API.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
	country string
	logger  *zap.Logger
}

// NewClient creates an iTunes client from configuration.
func NewClient(cfg core.ITunesConfig, logger *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		country: cfg.Country,
		logger:  logger.With(zap.String("catalog", "itunes")),
	}
}

// SearchTracks returns up to limit songs matching term.
func (c *Client) SearchTracks(ctx context.Context, term string, limit int) ([]core.PreviewTrack, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = core.DefaultPreviewSearchLimit
	}

	params := url.Values{
		"term":   {term},
		"media":  {"music"},
		"entity": {"song"},
		"limit":  {strconv.Itoa(limit)},
	}
	if c.country != "" {
		params.Set("country", c.country)
	}

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	tracks := make([]core.PreviewTrack, 0, len(resp.Results))
	for _, r := range resp.Results {
		tracks = append(tracks, r.toPreviewTrack())
	}

	c.logger.Debug("Track search completed",
		zap.String("term", term),
		zap.Int("limit", limit),
		zap.Int("results", len(tracks)))

	return tracks, nil
}

// ArtistTracks returns up to limit songs by the named artist, keeping only
// results whose artist name matches case-insensitively.
func (c *Client) ArtistTracks(ctx context.Context, artist string, limit int) ([]core.PreviewTrack, error) {
	tracks, err := c.SearchTracks(ctx, artist, limit)
	if err != nil {
		return nil, err
	}
	out := tracks[:0]
	for _, t := range tracks {
		if strings.EqualFold(strings.TrimSpace(t.ArtistName), strings.TrimSpace(artist)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("itunes rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("itunes request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusForbidden:
		return fmt.Errorf("itunes rate limited with status %d", resp.StatusCode)
	default:
		return fmt.Errorf("itunes API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading itunes response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode itunes response: %w", err)
	}
	return nil
}

func (r trackResult) toPreviewTrack() core.PreviewTrack {
	return core.PreviewTrack{
		ArtistName:  r.ArtistName,
		TrackName:   r.TrackName,
		AlbumName:   r.CollectionName,
		PreviewURL:  r.PreviewURL,
		ArtworkURL:  r.ArtworkURL100,
		Duration:    time.Duration(r.TrackTimeMillis) * time.Millisecond,
		TrackURL:    r.TrackViewURL,
		Genre:       r.PrimaryGenreName,
		ReleaseDate: r.ReleaseDate,
	}
}
