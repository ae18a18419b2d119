package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fujirock/internal/core"
	"fujirock/internal/enrich"
	"fujirock/internal/flood"
	"fujirock/internal/preview"
	"fujirock/internal/resolver"
	"fujirock/pkg/fuzzy"
)

type fakeResolver struct {
	create    *resolver.CreateResult
	createErr error
	created   []core.NewArtist

	resolution *resolver.Resolution
	resolveErr error

	search    *resolver.SearchResult
	searchErr error
	pages     []fuzzy.Page
}

func (f *fakeResolver) CreateArtist(_ context.Context, in core.NewArtist) (*resolver.CreateResult, error) {
	f.created = append(f.created, in)
	return f.create, f.createErr
}

func (f *fakeResolver) ResolveByName(_ context.Context, _ string) (*resolver.Resolution, error) {
	if f.resolution == nil && f.resolveErr == nil {
		return &resolver.Resolution{}, nil
	}
	return f.resolution, f.resolveErr
}

func (f *fakeResolver) Search(_ context.Context, _ string, page fuzzy.Page) (*resolver.SearchResult, error) {
	f.pages = append(f.pages, page)
	return f.search, f.searchErr
}

type fakeStore struct {
	artists      map[string]*core.Artist
	songs        map[string][]core.Song
	descriptions map[string]*core.AIDescription
	favorites    map[string][]core.Favorite
	searches     []core.SearchRecord
	popular      []core.PopularSearch
	popularSince time.Time
	popularLimit int
	festival     []core.Artist
	err          error
	pingErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		artists:      map[string]*core.Artist{},
		songs:        map[string][]core.Song{},
		descriptions: map[string]*core.AIDescription{},
		favorites:    map[string][]core.Favorite{},
	}
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) GetArtistByID(_ context.Context, id string) (*core.Artist, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.artists[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) ListFestivalArtists(_ context.Context, offset, limit int) ([]core.Artist, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	total := len(s.festival)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return s.festival[offset:end], total, nil
}

func (s *fakeStore) ListSongsByArtist(_ context.Context, artistID string) ([]core.Song, error) {
	return s.songs[artistID], nil
}

func (s *fakeStore) LatestAIDescription(_ context.Context, artistID, language string) (*core.AIDescription, error) {
	d, ok := s.descriptions[artistID+"/"+language]
	if !ok {
		return nil, core.ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) AddFavorite(_ context.Context, fav core.Favorite) (*core.Favorite, error) {
	a, ok := s.artists[fav.ArtistID]
	if !ok {
		return nil, core.ErrNotFound
	}
	fav.Artist = a
	s.favorites[fav.UserID] = append(s.favorites[fav.UserID], fav)
	return &fav, nil
}

func (s *fakeStore) RemoveFavorite(_ context.Context, userID, artistID string) error {
	favs := s.favorites[userID]
	for i, f := range favs {
		if f.ArtistID == artistID {
			s.favorites[userID] = append(favs[:i], favs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *fakeStore) ListFavorites(_ context.Context, userID string) ([]core.Favorite, error) {
	return s.favorites[userID], nil
}

func (s *fakeStore) RecordSearch(_ context.Context, rec core.SearchRecord) error {
	s.searches = append(s.searches, rec)
	return nil
}

func (s *fakeStore) PopularSearches(_ context.Context, since time.Time, limit int) ([]core.PopularSearch, error) {
	s.popularSince, s.popularLimit = since, limit
	return s.popular, nil
}

type fakePreviews struct {
	match *preview.Match
	err   error
}

func (p *fakePreviews) Match(context.Context, string, string) (*preview.Match, error) {
	return p.match, p.err
}

type fakeEnricher struct {
	report *enrich.Report
	err    error
}

func (e *fakeEnricher) Enrich(context.Context, string) (*enrich.Report, error) {
	return e.report, e.err
}

type response struct {
	Success               bool            `json:"success"`
	Data                  json.RawMessage `json:"data"`
	Error                 string          `json:"error"`
	Message               string          `json:"message"`
	MatchType             string          `json:"match_type"`
	SimilarityScore       *float64        `json:"similarity_score"`
	MatchedName           string          `json:"matched_name"`
	ExistingID            string          `json:"existing_id"`
	AlternativeCandidates []candidateDTO  `json:"alternative_candidates"`
	SearchType            string          `json:"search_type"`
	Pagination            *paginationDTO  `json:"pagination"`
}

type testEnv struct {
	api      *API
	resolver *fakeResolver
	store    *fakeStore
	handler  http.Handler
}

func newTestEnv(t *testing.T, configure func(*API)) *testEnv {
	t.Helper()
	res := &fakeResolver{}
	store := newFakeStore()
	api := &API{
		Resolver: res,
		Store:    store,
		Language: "en",
		Logger:   zap.NewNop(),
	}
	if configure != nil {
		configure(api)
	}
	srv := NewServer(&core.ServerConfig{}, api, zap.NewNop())
	return &testEnv{api: api, resolver: res, store: store, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) (int, response, http.Header) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return rec.Code, out, rec.Header()
}

func artist(id, name string) core.Artist {
	return core.Artist{ID: id, Name: name, CreatedAt: time.Unix(1700000000, 0).UTC()}
}

func TestCreateArtist(t *testing.T) {
	env := newTestEnv(t, nil)
	created := artist("a1", "Radiohead")
	env.resolver.create = &resolver.CreateResult{Artist: &created}

	status, body, _ := env.do(t, http.MethodPost, "/api/artists",
		`{"name":"  Radiohead ","genres":["rock"],"is_festival_artist":true}`)

	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)
	assert.Equal(t, "Added Radiohead.", body.Message)

	var dto artistDTO
	require.NoError(t, json.Unmarshal(body.Data, &dto))
	assert.Equal(t, "a1", dto.ID)
	assert.Equal(t, []string{}, dto.Genres)

	require.Len(t, env.resolver.created, 1)
	assert.Equal(t, []string{"rock"}, env.resolver.created[0].Genres)
	assert.True(t, env.resolver.created[0].IsFestival)
}

func TestCreateArtist_Duplicate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.resolver.create = &resolver.CreateResult{Duplicate: &resolver.Duplicate{
		ExistingID:  "a1",
		MatchedName: "Radiohead",
		Score:       0.92,
		Tier:        fuzzy.TierHigh,
	}}

	status, body, _ := env.do(t, http.MethodPost, "/api/artists", `{"name":"Radio Head"}`)

	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, body.Success)
	assert.Equal(t, "a1", body.ExistingID)
	assert.Equal(t, "Radiohead", body.MatchedName)
	require.NotNil(t, body.SimilarityScore)
	assert.InDelta(t, 0.92, *body.SimilarityScore, 1e-9)
	assert.Contains(t, body.Error, "Radio Head")
}

func TestCreateArtist_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"name":`, "The request body is not valid JSON."},
		{"blank name", `{"name":"   "}`, "An artist name is required."},
		{"missing name", `{}`, "An artist name is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			status, body, _ := env.do(t, http.MethodPost, "/api/artists", tt.body)

			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, body.Error)
			assert.Empty(t, env.resolver.created)
		})
	}
}

func TestCreateArtist_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	env.resolver.createErr = core.ErrStoreUnavailable

	status, body, _ := env.do(t, http.MethodPost, "/api/artists", `{"name":"Bjork"}`)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.NotEmpty(t, body.Error)
}

func TestResolveArtist(t *testing.T) {
	env := newTestEnv(t, nil)
	best := artist("a1", "The Chemical Brothers")
	env.resolver.resolution = &resolver.Resolution{
		Found:     true,
		Artist:    &best,
		MatchType: resolver.MatchFuzzy,
		Score:     0.81,
		Tier:      fuzzy.TierHigh,
		Alternatives: []resolver.Candidate{
			{Artist: artist("a2", "Chemical Romance"), Score: 0.4, Tier: fuzzy.TierLow},
		},
	}

	status, body, _ := env.do(t, http.MethodGet, "/api/artists/by-name/chemical%20brothers", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fuzzy", body.MatchType)
	assert.Equal(t, "The Chemical Brothers", body.MatchedName)
	require.NotNil(t, body.SimilarityScore)
	assert.InDelta(t, 0.81, *body.SimilarityScore, 1e-9)
	require.Len(t, body.AlternativeCandidates, 1)
	assert.Equal(t, "a2", body.AlternativeCandidates[0].Artist.ID)
	assert.Equal(t, "low", body.AlternativeCandidates[0].Tier)
}

func TestResolveArtist_NotFoundLocalized(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodGet, "/api/artists/by-name/Zzz", "",
		"Accept-Language", "ja-JP,ja;q=0.9,en;q=0.5")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "「Zzz」に一致するアーティストが見つかりません。", body.Error)
}

func TestSearchArtists(t *testing.T) {
	env := newTestEnv(t, nil)
	env.resolver.search = &resolver.SearchResult{
		Artists: []resolver.Candidate{
			{Artist: artist("a1", "Vampire Weekend"), Score: 0.7, Tier: fuzzy.TierMedium},
		},
		Total:      3,
		Offset:     0,
		Limit:      1,
		SearchType: resolver.SearchFuzzy,
	}

	status, body, _ := env.do(t, http.MethodGet, "/api/artists/search?q=vampire&limit=1&user_id=u1", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fuzzy", body.SearchType)
	assert.Equal(t, "Did you mean Vampire Weekend?", body.Message)
	assert.Equal(t, &paginationDTO{Offset: 0, Limit: 1, Total: 3}, body.Pagination)
	assert.Equal(t, []fuzzy.Page{{Offset: 0, Limit: 1}}, env.resolver.pages)

	require.Len(t, env.store.searches, 1)
	assert.Equal(t, core.SearchRecord{UserID: "u1", Query: "vampire", SearchType: "fuzzy", ResultsCount: 3},
		env.store.searches[0])
}

func TestSearchArtists_Browse(t *testing.T) {
	env := newTestEnv(t, nil)
	env.resolver.search = &resolver.SearchResult{Limit: 20, SearchType: resolver.SearchBrowse}

	status, body, _ := env.do(t, http.MethodGet, "/api/artists/search", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "browse", body.SearchType)
	assert.Empty(t, env.store.searches, "browsing is not a recorded search")
	assert.Equal(t, []fuzzy.Page{{Offset: 0, Limit: defaultPageLimit}}, env.resolver.pages)
}

func TestSearchArtists_Params(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		page   *fuzzy.Page
	}{
		{"limit capped", "?q=x&limit=1000", http.StatusOK, &fuzzy.Page{Limit: maxPageLimit}},
		{"zero limit", "?q=x&limit=0", http.StatusOK, &fuzzy.Page{Limit: defaultPageLimit}},
		{"negative limit", "?q=x&limit=-1", http.StatusOK, &fuzzy.Page{Limit: defaultPageLimit}},
		{"offset", "?q=x&offset=40", http.StatusOK, &fuzzy.Page{Offset: 40, Limit: defaultPageLimit}},
		{"bad offset", "?q=x&offset=abc", http.StatusBadRequest, nil},
		{"bad limit", "?q=x&limit=1.5", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.resolver.search = &resolver.SearchResult{SearchType: resolver.SearchNoResults}

			status, _, _ := env.do(t, http.MethodGet, "/api/artists/search"+tt.query, "")

			assert.Equal(t, tt.status, status)
			if tt.page == nil {
				assert.Empty(t, env.resolver.pages)
			} else {
				assert.Equal(t, []fuzzy.Page{*tt.page}, env.resolver.pages)
			}
		})
	}
}

func TestGetArtist(t *testing.T) {
	env := newTestEnv(t, nil)
	a := artist("a1", "Fishmans")
	a.Genres = []string{"dub"}
	env.store.artists["a1"] = &a
	env.store.songs["a1"] = []core.Song{{ID: "s1", Title: "Long Season", Duration: 35 * time.Minute}}
	env.store.descriptions["a1/ja"] = &core.AIDescription{Content: "日本のバンド", Language: "ja", Provider: "ollama"}

	status, body, _ := env.do(t, http.MethodGet, "/api/artists/a1", "", "Accept-Language", "ja")
	require.Equal(t, http.StatusOK, status)

	var detail struct {
		ID            string            `json:"id"`
		Genres        []string          `json:"genres"`
		Songs         []songDTO         `json:"songs"`
		AIDescription *aiDescriptionDTO `json:"ai_description"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	assert.Equal(t, "a1", detail.ID)
	assert.Equal(t, []string{"dub"}, detail.Genres)
	require.Len(t, detail.Songs, 1)
	assert.Equal(t, int64(35*60*1000), detail.Songs[0].DurationMS)
	require.NotNil(t, detail.AIDescription)
	assert.Equal(t, "日本のバンド", detail.AIDescription.Content)

	// English has no description yet.
	_, body, _ = env.do(t, http.MethodGet, "/api/artists/a1", "")
	var english artistDetailDTO
	require.NoError(t, json.Unmarshal(body.Data, &english))
	assert.Nil(t, english.AIDescription)
}

func TestGetArtist_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"missing", nil, http.StatusNotFound},
		{"store unavailable", core.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.store.err = tt.err

			status, body, _ := env.do(t, http.MethodGet, "/api/artists/nope", "")

			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestFestivalArtists(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, name := range []string{"Vampire Weekend", "Fred again..", "Fishmans"} {
		env.store.festival = append(env.store.festival, artist(strings.ToLower(name), name))
	}

	status, body, _ := env.do(t, http.MethodGet, "/api/artists/festival?offset=1&limit=5", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, &paginationDTO{Offset: 1, Limit: 5, Total: 3}, body.Pagination)

	var artists []artistDTO
	require.NoError(t, json.Unmarshal(body.Data, &artists))
	require.Len(t, artists, 2)
	assert.Equal(t, "Fred again..", artists[0].Name)
}

func TestEnrichArtist(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, nil)
		status, body, _ := env.do(t, http.MethodPost, "/api/artists/a1/enrich", "")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Contains(t, body.Error, "enrichment")
	})

	t.Run("partial report", func(t *testing.T) {
		env := newTestEnv(t, func(api *API) {
			api.Enricher = &fakeEnricher{report: &enrich.Report{
				ArtistID:     "a1",
				WikiFound:    true,
				TracksStored: 4,
				Errors:       map[string]string{enrich.SourceCatalog: "rate limited"},
			}}
		})

		status, body, _ := env.do(t, http.MethodPost, "/api/artists/a1/enrich", "")
		require.Equal(t, http.StatusOK, status)

		var report enrichReportDTO
		require.NoError(t, json.Unmarshal(body.Data, &report))
		assert.True(t, report.WikiFound)
		assert.Equal(t, 4, report.TracksStored)
		assert.Equal(t, "rate limited", report.Errors[enrich.SourceCatalog])
	})

	t.Run("unknown artist", func(t *testing.T) {
		env := newTestEnv(t, func(api *API) {
			api.Enricher = &fakeEnricher{err: core.ErrNotFound}
		})
		status, _, _ := env.do(t, http.MethodPost, "/api/artists/zz/enrich", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestTrackPreview(t *testing.T) {
	match := &preview.Match{
		Track: core.PreviewTrack{
			ArtistName: "Nirvana",
			TrackName:  "Lithium",
			PreviewURL: "https://audio.example/l.m4a",
			Duration:   257 * time.Second,
		},
		Strategy: preview.StrategyDirect,
	}

	tests := []struct {
		name     string
		previews PreviewMatcher
		query    string
		status   int
	}{
		{"match", &fakePreviews{match: match}, "?artist=Nirvana&track=Lithium", http.StatusOK},
		{"no match", &fakePreviews{}, "?artist=Nirvana&track=Lithium", http.StatusNotFound},
		{"upstream failure", &fakePreviews{err: errors.New("timeout")}, "?artist=Nirvana&track=Lithium", http.StatusBadGateway},
		{"missing track", &fakePreviews{match: match}, "?artist=Nirvana", http.StatusBadRequest},
		{"not configured", nil, "?artist=Nirvana&track=Lithium", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(api *API) { api.Previews = tt.previews })

			status, body, _ := env.do(t, http.MethodGet, "/api/tracks/preview"+tt.query, "")

			assert.Equal(t, tt.status, status)
			if tt.status != http.StatusOK {
				assert.NotEmpty(t, body.Error)
				return
			}
			var dto previewDTO
			require.NoError(t, json.Unmarshal(body.Data, &dto))
			assert.Equal(t, "direct", dto.Strategy)
			assert.Equal(t, int64(257000), dto.DurationMS)
		})
	}
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t, nil)
	a := artist("a1", "Khruangbin")
	env.store.artists["a1"] = &a

	status, body, _ := env.do(t, http.MethodPut, "/api/users/u1/favorites/a1", `{"tags":["sunday"],"notes":"green stage"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Saved Khruangbin to your favorites.", body.Message)

	status, body, _ = env.do(t, http.MethodGet, "/api/users/u1/favorites", "")
	require.Equal(t, http.StatusOK, status)
	var favs []favoriteDTO
	require.NoError(t, json.Unmarshal(body.Data, &favs))
	require.Len(t, favs, 1)
	assert.Equal(t, []string{"sunday"}, favs[0].Tags)
	require.NotNil(t, favs[0].Artist)
	assert.Equal(t, "Khruangbin", favs[0].Artist.Name)

	status, _, _ = env.do(t, http.MethodDelete, "/api/users/u1/favorites/a1", "")
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = env.do(t, http.MethodDelete, "/api/users/u1/favorites/a1", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = env.do(t, http.MethodPut, "/api/users/u1/favorites/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPopularSearches(t *testing.T) {
	now := time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, func(api *API) { api.Now = func() time.Time { return now } })
	env.store.popular = []core.PopularSearch{{Query: "radiohead", Count: 12}}

	status, body, _ := env.do(t, http.MethodGet, "/api/searches/popular?days=3&limit=500", "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, now.Add(-72*time.Hour), env.store.popularSince)
	assert.Equal(t, maxPageLimit, env.store.popularLimit)

	var popular []popularSearchDTO
	require.NoError(t, json.Unmarshal(body.Data, &popular))
	assert.Equal(t, []popularSearchDTO{{Query: "radiohead", Count: 12}}, popular)
}

func TestWriteRoutesAreFloodGated(t *testing.T) {
	gate := flood.New(2)
	t.Cleanup(gate.Stop)

	env := newTestEnv(t, func(api *API) { api.Flood = gate })
	created := artist("a1", "Radiohead")
	env.resolver.create = &resolver.CreateResult{Artist: &created}

	for range 2 {
		status, _, _ := env.do(t, http.MethodPost, "/api/artists", `{"name":"Radiohead"}`)
		require.Equal(t, http.StatusCreated, status)
	}

	status, body, headers := env.do(t, http.MethodPost, "/api/artists", `{"name":"Radiohead"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.NotEmpty(t, headers.Get("Retry-After"))
	assert.Contains(t, body.Error, "Too many requests")
	assert.Len(t, env.resolver.created, 2)

	// Reads and other scopes are unaffected.
	env.resolver.search = &resolver.SearchResult{SearchType: resolver.SearchBrowse}
	status, _, _ = env.do(t, http.MethodGet, "/api/artists/search", "")
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = env.do(t, http.MethodPut, "/api/users/u1/favorites/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
}
