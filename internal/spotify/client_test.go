package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"fujirock/internal/core"
	"fujirock/pkg/fuzzy"
)

const artistSearchResponse = `{
  "artists": {
    "href": "", "limit": 10, "offset": 0, "total": 3,
    "items": [
      {"id": "tribute", "name": "Four Tet Tribute Orchestra", "genres": [], "popularity": 3,
       "images": [], "external_urls": {"spotify": "https://open.spotify.com/artist/tribute"}},
      {"id": "7Eu1txygG6nJttLHbZdQOh", "name": "Four Tet", "genres": ["electronica", "folktronica"], "popularity": 66,
       "images": [{"url": "https://img.example/fourtet.jpg", "height": 640, "width": 640}],
       "external_urls": {"spotify": "https://open.spotify.com/artist/7Eu1txygG6nJttLHbZdQOh"}},
      {"id": "radiohead", "name": "Radiohead", "genres": ["rock"], "popularity": 80, "images": [],
       "external_urls": {}}
    ]
  }
}`

const topTracksResponse = `{
  "tracks": [
    {"id": "t1", "name": "Baby", "duration_ms": 271000, "preview_url": "https://p.example/baby.mp3",
     "artists": [{"id": "a", "name": "Four Tet"}, {"id": "b", "name": "Ellie Goulding"}],
     "album": {"id": "al", "name": "Sixteen Oceans"}, "external_urls": {"spotify": "https://open.spotify.com/track/t1"}},
    {"id": "t2", "name": "Two Thousand and Seventeen", "duration_ms": 220000,
     "artists": [{"id": "a", "name": "Four Tet"}], "album": {"id": "al2", "name": "New Energy"}, "external_urls": {}},
    {"id": "t3", "name": "Parallel Jalebi", "duration_ms": 200000,
     "artists": [{"id": "a", "name": "Four Tet"}], "album": {"id": "al3", "name": "Parallel"}, "external_urls": {}}
  ]
}`

func newTestClient(t *testing.T) (*Client, *url.Values) {
	t.Helper()
	last := &url.Values{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("q") == "nobody" {
				_, _ = w.Write([]byte(`{"artists": {"items": []}}`))
				return
			}
			_, _ = w.Write([]byte(artistSearchResponse))
		case "/artists/7Eu1txygG6nJttLHbZdQOh/top-tracks":
			_, _ = w.Write([]byte(topTracksResponse))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"status": 404, "message": "not found"}}`))
		}
	}))
	t.Cleanup(srv.Close)

	api := spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/"))
	ranker := fuzzy.NewRanker(fuzzy.NewScorer(fuzzy.DefaultWeights()))
	return NewWithAPI(api, "JP", ranker, zap.NewNop()), last
}

func TestFindArtist(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		wantID string
	}{
		{"exact name beats containment", "Four Tet", "7Eu1txygG6nJttLHbZdQOh"},
		{"close spelling", "Fourtet", "7Eu1txygG6nJttLHbZdQOh"},
		{"case and spacing", "  four TET ", "7Eu1txygG6nJttLHbZdQOh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, last := newTestClient(t)

			artist, err := c.FindArtist(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("FindArtist() error = %v", err)
			}
			if artist.ID != tt.wantID {
				t.Errorf("FindArtist() id = %q, want %q", artist.ID, tt.wantID)
			}
			if got := last.Get("type"); got != "artist" {
				t.Errorf("search type = %q, want artist", got)
			}
			if got := last.Get("market"); got != "JP" {
				t.Errorf("market = %q, want JP", got)
			}
		})
	}
}

func TestFindArtist_Fields(t *testing.T) {
	c, _ := newTestClient(t)

	artist, err := c.FindArtist(context.Background(), "Four Tet")
	if err != nil {
		t.Fatalf("FindArtist() error = %v", err)
	}
	if artist.Name != "Four Tet" || artist.Popularity != 66 {
		t.Errorf("artist = %+v", artist)
	}
	if len(artist.Genres) != 2 || artist.Genres[0] != "electronica" {
		t.Errorf("genres = %v", artist.Genres)
	}
	if artist.ImageURL != "https://img.example/fourtet.jpg" {
		t.Errorf("image = %q", artist.ImageURL)
	}
	if artist.URL != "https://open.spotify.com/artist/7Eu1txygG6nJttLHbZdQOh" {
		t.Errorf("url = %q", artist.URL)
	}
}

func TestFindArtist_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"no results", "nobody"},
		{"below medium tier", "Sigur Ros Hopelandic Choir Ensemble"},
		{"blank", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t)
			_, err := c.FindArtist(context.Background(), tt.query)
			if !errors.Is(err, core.ErrNotFound) {
				t.Errorf("FindArtist(%q) error = %v, want ErrNotFound", tt.query, err)
			}
		})
	}
}

func TestTopTracks(t *testing.T) {
	c, last := newTestClient(t)

	tracks, err := c.TopTracks(context.Background(), "7Eu1txygG6nJttLHbZdQOh", 2)
	if err != nil {
		t.Fatalf("TopTracks() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if got := last.Get("country"); got != "JP" {
		t.Errorf("country = %q, want JP", got)
	}

	baby := tracks[0]
	if baby.Title != "Baby" || baby.Artist != "Four Tet, Ellie Goulding" || baby.Album != "Sixteen Oceans" {
		t.Errorf("track = %+v", baby)
	}
	if baby.Duration != 271*time.Second {
		t.Errorf("duration = %v", baby.Duration)
	}
	if baby.PreviewURL == "" || tracks[1].PreviewURL != "" {
		t.Errorf("preview urls = %q, %q", baby.PreviewURL, tracks[1].PreviewURL)
	}
}

func TestTopTracks_Errors(t *testing.T) {
	c, _ := newTestClient(t)

	if _, err := c.TopTracks(context.Background(), "", 5); err == nil {
		t.Error("TopTracks(\"\") should fail")
	}
	if _, err := c.TopTracks(context.Background(), "missing", 5); err == nil {
		t.Error("TopTracks(missing) should fail")
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	ranker := fuzzy.NewRanker(fuzzy.NewScorer(fuzzy.DefaultWeights()))
	_, err := NewClient(context.Background(), core.SpotifyConfig{ClientID: "id"}, ranker, zap.NewNop())
	if !errors.Is(err, core.ErrNotConfigured) {
		t.Errorf("NewClient() error = %v, want ErrNotConfigured", err)
	}
}
