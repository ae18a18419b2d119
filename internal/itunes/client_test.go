package itunes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fujirock/internal/core"
)

const nirvanaSearch = `{
  "resultCount": 2,
  "results": [
    {
      "trackName": "Come As You Are",
      "artistName": "Nirvana",
      "collectionName": "Nevermind",
      "previewUrl": "https://audio.example/come.m4a",
      "artworkUrl100": "https://art.example/100.jpg",
      "trackTimeMillis": 219000,
      "trackViewUrl": "https://music.example/track/1",
      "primaryGenreName": "Alternative",
      "releaseDate": "1991-09-24T07:00:00Z"
    },
    {
      "trackName": "Come As You Are",
      "artistName": "Nirvana Tribute Band",
      "collectionName": "Tribute"
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := core.DefaultConfig().ITunes
	cfg.BaseURL = srv.URL + "/search"
	cfg.RequestsPerSecond = 1000
	return NewClient(cfg, zap.NewNop())
}

func TestSearchTracks(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"path":    r.URL.Path,
			"term":    q.Get("term"),
			"media":   q.Get("media"),
			"entity":  q.Get("entity"),
			"limit":   q.Get("limit"),
			"country": q.Get("country"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nirvanaSearch))
	})

	tracks, err := client.SearchTracks(context.Background(), "Nirvana Come As You Are", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, map[string]string{
		"path":    "/search",
		"term":    "Nirvana Come As You Are",
		"media":   "music",
		"entity":  "song",
		"limit":   "5",
		"country": "US",
	}, got)

	first := tracks[0]
	assert.Equal(t, "Nirvana", first.ArtistName)
	assert.Equal(t, "Nevermind", first.AlbumName)
	assert.Equal(t, 219*time.Second, first.Duration)
	assert.Equal(t, "Alternative", first.Genre)
	assert.True(t, first.HasPreview())
	assert.False(t, tracks[1].HasPreview())
}

func TestSearchTracks_BlankTermSkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	tracks, err := client.SearchTracks(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, tracks)
	assert.False(t, called)
}

func TestSearchTracks_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "", "status 500"},
		{"rate limited", http.StatusTooManyRequests, "", "rate limited"},
		{"bad json", http.StatusOK, "{not json", "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.SearchTracks(context.Background(), "Nirvana", 5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestArtistTracks_FiltersOtherArtists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(nirvanaSearch))
	})

	tracks, err := client.ArtistTracks(context.Background(), "nirvana", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Nevermind", tracks[0].AlbumName)
}

func TestSearchTracks_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(nirvanaSearch))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchTracks(ctx, "Nirvana", 5)
	assert.Error(t, err)
}
