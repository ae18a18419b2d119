package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fujirock/internal/core"
	"fujirock/internal/enrich"
	"fujirock/internal/flood"
	"fujirock/internal/i18n"
	"fujirock/internal/preview"
	"fujirock/internal/resolver"
	"fujirock/pkg/fuzzy"
)

const (
	defaultPageLimit    = 20
	maxPageLimit        = 100
	defaultPopularDays  = 7
	defaultPopularLimit = 10
	maxBodyBytes        = 64 * 1024

	scopeArtists   = "artists"
	scopeEnrich    = "enrich"
	scopeFavorites = "favorites"
)

// Resolver is the artist resolution service.
type Resolver interface {
	CreateArtist(ctx context.Context, in core.NewArtist) (*resolver.CreateResult, error)
	ResolveByName(ctx context.Context, name string) (*resolver.Resolution, error)
	Search(ctx context.Context, query string, page fuzzy.Page) (*resolver.SearchResult, error)
}

// Store is the content store as seen by the API.
type Store interface {
	Ping(ctx context.Context) error
	GetArtistByID(ctx context.Context, id string) (*core.Artist, error)
	ListFestivalArtists(ctx context.Context, offset, limit int) ([]core.Artist, int, error)
	ListSongsByArtist(ctx context.Context, artistID string) ([]core.Song, error)
	LatestAIDescription(ctx context.Context, artistID, language string) (*core.AIDescription, error)
	AddFavorite(ctx context.Context, fav core.Favorite) (*core.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, artistID string) error
	ListFavorites(ctx context.Context, userID string) ([]core.Favorite, error)
	RecordSearch(ctx context.Context, rec core.SearchRecord) error
	PopularSearches(ctx context.Context, since time.Time, limit int) ([]core.PopularSearch, error)
}

// PreviewMatcher finds preview audio for a track.
type PreviewMatcher interface {
	Match(ctx context.Context, artist, track string) (*preview.Match, error)
}

// Enricher gathers external data for an artist.
type Enricher interface {
	Enrich(ctx context.Context, artistID string) (*enrich.Report, error)
}

// API serves the artist endpoints. Previews and Enricher may be nil when the
// corresponding services are not configured.
type API struct {
	Resolver Resolver
	Store    Store
	Previews PreviewMatcher
	Enricher Enricher
	Flood    *flood.Floodgate
	Metrics  *Metrics
	Language string
	Logger   *zap.Logger
	Now      func() time.Time
}

func (a *API) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/artists", a.gated(scopeArtists, a.createArtist))
	mux.HandleFunc("GET /api/artists/search", a.searchArtists)
	mux.HandleFunc("GET /api/artists/festival", a.festivalArtists)
	mux.HandleFunc("GET /api/artists/by-name/{name}", a.resolveArtist)
	mux.HandleFunc("GET /api/artists/{id}", a.getArtist)
	mux.HandleFunc("POST /api/artists/{id}/enrich", a.gated(scopeEnrich, a.enrichArtist))
	mux.HandleFunc("GET /api/tracks/preview", a.trackPreview)
	mux.HandleFunc("GET /api/users/{user}/favorites", a.listFavorites)
	mux.HandleFunc("PUT /api/users/{user}/favorites/{artist}", a.gated(scopeFavorites, a.addFavorite))
	mux.HandleFunc("DELETE /api/users/{user}/favorites/{artist}", a.gated(scopeFavorites, a.removeFavorite))
	mux.HandleFunc("GET /api/searches/popular", a.popularSearches)
}

func (a *API) createArtist(w http.ResponseWriter, r *http.Request) {
	loc := a.localizer(r)

	var req createArtistRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.fail(w, http.StatusBadRequest, loc.T("error.name_required"))
		return
	}

	res, err := a.Resolver.CreateArtist(r.Context(), core.NewArtist{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Genres:      req.Genres,
		IsFestival:  req.IsFestival,
	})
	if err != nil {
		a.handleError(w, r, "resolver", err)
		return
	}

	if dup := res.Duplicate; dup != nil {
		a.Metrics.RecordDuplicate()
		score := dup.Score
		a.writeJSON(w, http.StatusConflict, envelope{
			Error:           loc.T("error.duplicate_artist", strings.TrimSpace(req.Name), dup.MatchedName),
			MatchedName:     dup.MatchedName,
			ExistingID:      dup.ExistingID,
			SimilarityScore: &score,
		})
		return
	}

	a.Metrics.RecordArtistCreated()
	a.writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    toArtistDTO(res.Artist),
		Message: loc.T("success.artist_created", res.Artist.Name),
	})
}

func (a *API) getArtist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artist, err := a.Store.GetArtistByID(ctx, r.PathValue("id"))
	if err != nil {
		a.handleError(w, r, "store", err)
		return
	}

	songs, err := a.Store.ListSongsByArtist(ctx, artist.ID)
	if err != nil {
		a.handleError(w, r, "store", err)
		return
	}

	detail := artistDetailDTO{artistDTO: toArtistDTO(artist), Songs: toSongDTOs(songs)}

	desc, err := a.Store.LatestAIDescription(ctx, artist.ID, a.localizer(r).Language())
	switch {
	case err == nil:
		detail.AIDescription = &aiDescriptionDTO{
			Content:   desc.Content,
			Language:  desc.Language,
			Provider:  desc.Provider,
			Model:     desc.Model,
			CreatedAt: desc.CreatedAt,
		}
	case !errors.Is(err, core.ErrNotFound):
		a.handleError(w, r, "store", err)
		return
	}

	a.writeJSON(w, http.StatusOK, envelope{Success: true, Data: detail})
}

func (a *API) resolveArtist(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	res, err := a.Resolver.ResolveByName(r.Context(), name)
	if err != nil {
		a.handleError(w, r, "resolver", err)
		return
	}

	if !res.Found {
		a.Metrics.RecordResolution("not_found")
		a.writeJSON(w, http.StatusNotFound, envelope{
			Error: a.localizer(r).T("error.artist_not_found", name),
		})
		return
	}

	a.Metrics.RecordResolution(string(res.MatchType))
	score := res.Score
	a.writeJSON(w, http.StatusOK, envelope{
		Success:               true,
		Data:                  toArtistDTO(res.Artist),
		MatchType:             string(res.MatchType),
		SimilarityScore:       &score,
		MatchedName:           res.Artist.Name,
		AlternativeCandidates: toCandidateDTOs(res.Alternatives),
	})
}

func (a *API) searchArtists(w http.ResponseWriter, r *http.Request) {
	loc := a.localizer(r)
	q := r.URL.Query()

	page, ok := a.page(w, r)
	if !ok {
		return
	}

	query := q.Get("q")
	res, err := a.Resolver.Search(r.Context(), query, page)
	if err != nil {
		a.handleError(w, r, "resolver", err)
		return
	}

	a.Metrics.RecordSearch(string(res.SearchType))
	if res.SearchType != resolver.SearchBrowse {
		a.recordSearch(r.Context(), q.Get("user_id"), query, res)
	}

	body := envelope{
		Success:    true,
		Data:       toCandidateDTOs(res.Artists),
		SearchType: string(res.SearchType),
		Pagination: &paginationDTO{Offset: res.Offset, Limit: res.Limit, Total: res.Total},
	}
	switch res.SearchType {
	case resolver.SearchNoResults:
		body.Message = loc.T("search.no_results", query)
	case resolver.SearchBrowse:
		body.Message = loc.T("search.browse")
	case resolver.SearchFuzzy, resolver.SearchHighSimilarity:
		if len(res.Artists) > 0 && res.Offset == 0 {
			body.Message = loc.T("search.did_you_mean", res.Artists[0].Artist.Name)
		}
	}

	a.writeJSON(w, http.StatusOK, body)
}

func (a *API) recordSearch(ctx context.Context, userID, query string, res *resolver.SearchResult) {
	err := a.Store.RecordSearch(ctx, core.SearchRecord{
		UserID:       userID,
		Query:        strings.TrimSpace(query),
		SearchType:   string(res.SearchType),
		ResultsCount: res.Total,
	})
	if err != nil {
		a.Metrics.RecordError("store", "record_search")
		a.Logger.Warn("Failed to record search", zap.String("query", query), zap.Error(err))
	}
}

func (a *API) festivalArtists(w http.ResponseWriter, r *http.Request) {
	page, ok := a.page(w, r)
	if !ok {
		return
	}
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	artists, total, err := a.Store.ListFestivalArtists(r.Context(), page.Offset, limit)
	if err != nil {
		a.handleError(w, r, "store", err)
		return
	}

	out := make([]artistDTO, len(artists))
	for i := range artists {
		out[i] = toArtistDTO(&artists[i])
	}
	a.writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       out,
		Pagination: &paginationDTO{Offset: page.Offset, Limit: limit, Total: total},
	})
}

func (a *API) enrichArtist(w http.ResponseWriter, r *http.Request) {
	loc := a.localizer(r)
	if a.Enricher == nil {
		a.fail(w, http.StatusServiceUnavailable, loc.T("error.not_configured", "enrichment"))
		return
	}

	report, err := a.Enricher.Enrich(r.Context(), r.PathValue("id"))
	if err != nil {
		a.Metrics.RecordEnrichment("failed")
		a.handleError(w, r, "enrich", err)
		return
	}

	status := "complete"
	if len(report.Errors) > 0 {
		status = "partial"
	}
	a.Metrics.RecordEnrichment(status)

	a.writeJSON(w, http.StatusOK, envelope{Success: true, Data: toEnrichReportDTO(report)})
}

func (a *API) trackPreview(w http.ResponseWriter, r *http.Request) {
	loc := a.localizer(r)
	if a.Previews == nil {
		a.fail(w, http.StatusServiceUnavailable, loc.T("error.not_configured", "preview"))
		return
	}

	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	track := strings.TrimSpace(r.URL.Query().Get("track"))
	if artist == "" || track == "" {
		a.fail(w, http.StatusBadRequest, loc.T("error.preview_params"))
		return
	}

	match, err := a.Previews.Match(r.Context(), artist, track)
	if err != nil {
		a.Metrics.RecordError("preview", "upstream")
		a.Logger.Warn("Preview lookup failed",
			zap.String("artist", artist),
			zap.String("track", track),
			zap.Error(err))
		a.fail(w, http.StatusBadGateway, loc.T("error.upstream"))
		return
	}
	if match == nil {
		a.Metrics.RecordPreview("none")
		a.fail(w, http.StatusNotFound, loc.T("preview.none", artist, track))
		return
	}

	a.Metrics.RecordPreview(string(match.Strategy))
	a.writeJSON(w, http.StatusOK, envelope{Success: true, Data: previewDTO{
		ArtistName: match.Track.ArtistName,
		TrackName:  match.Track.TrackName,
		AlbumName:  match.Track.AlbumName,
		PreviewURL: match.Track.PreviewURL,
		ArtworkURL: match.Track.ArtworkURL,
		TrackURL:   match.Track.TrackURL,
		DurationMS: match.Track.Duration.Milliseconds(),
		Strategy:   string(match.Strategy),
		Score:      match.Score,
	}})
}

func (a *API) listFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := a.Store.ListFavorites(r.Context(), r.PathValue("user"))
	if err != nil {
		a.handleError(w, r, "store", err)
		return
	}

	out := make([]favoriteDTO, len(favs))
	for i := range favs {
		out[i] = toFavoriteDTO(&favs[i])
	}
	a.writeJSON(w, http.StatusOK, envelope{Success: true, Data: out})
}

func (a *API) addFavorite(w http.ResponseWriter, r *http.Request) {
	loc := a.localizer(r)

	var req favoriteRequest
	if r.ContentLength != 0 && !a.decode(w, r, &req) {
		return
	}

	fav, err := a.Store.AddFavorite(r.Context(), core.Favorite{
		UserID:   r.PathValue("user"),
		ArtistID: r.PathValue("artist"),
		Tags:     req.Tags,
		Notes:    req.Notes,
	})
	if err != nil {
		a.handleError(w, r, "store", err)
		return
	}

	name := fav.ArtistID
	if fav.Artist != nil {
		name = fav.Artist.Name
	}
	a.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    toFavoriteDTO(fav),
		Message: loc.T("success.favorite_added", name),
	})
}

func (a *API) removeFavorite(w http.ResponseWriter, r *http.Request) {
	err := a.Store.RemoveFavorite(r.Context(), r.PathValue("user"), r.PathValue("artist"))
	if err != nil {
		a.handleError(w, r, "store", err)
		return
	}
	a.writeJSON(w, http.StatusOK, envelope{Success: true, Message: a.localizer(r).T("success.favorite_removed")})
}

func (a *API) popularSearches(w http.ResponseWriter, r *http.Request) {
	days, ok := a.intParam(w, r, "days", defaultPopularDays)
	if !ok {
		return
	}
	limit, ok := a.intParam(w, r, "limit", defaultPopularLimit)
	if !ok {
		return
	}

	since := a.now().Add(-time.Duration(days) * 24 * time.Hour)
	popular, err := a.Store.PopularSearches(r.Context(), since, min(limit, maxPageLimit))
	if err != nil {
		a.handleError(w, r, "store", err)
		return
	}

	out := make([]popularSearchDTO, len(popular))
	for i, p := range popular {
		out[i] = popularSearchDTO{Query: p.Query, Count: p.Count}
	}
	a.writeJSON(w, http.StatusOK, envelope{Success: true, Data: out})
}

// gated rejects requests once the client exceeds its per-minute budget for
// scope.
func (a *API) gated(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.Flood == nil {
			next(w, r)
			return
		}

		decision := a.Flood.Check(scope, clientAddress(r))
		if !decision.Allowed {
			a.Metrics.RecordRateLimited(scope)
			seconds := int(decision.RetryAfter.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			a.fail(w, http.StatusTooManyRequests, a.localizer(r).T("error.rate_limited", seconds))
			return
		}
		next(w, r)
	}
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (a *API) page(w http.ResponseWriter, r *http.Request) (fuzzy.Page, bool) {
	offset, ok := a.intParam(w, r, "offset", 0)
	if !ok {
		return fuzzy.Page{}, false
	}
	limit, ok := a.intParam(w, r, "limit", defaultPageLimit)
	if !ok {
		return fuzzy.Page{}, false
	}
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	return fuzzy.Page{Offset: offset, Limit: limit}, true
}

func (a *API) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		a.fail(w, http.StatusBadRequest, a.localizer(r).T("error.invalid_param", name))
		return 0, false
	}
	return v, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		a.fail(w, http.StatusBadRequest, a.localizer(r).T("error.invalid_json"))
		return false
	}
	return true
}

func (a *API) handleError(w http.ResponseWriter, r *http.Request, component string, err error) {
	loc := a.localizer(r)
	switch {
	case errors.Is(err, core.ErrNotFound):
		a.fail(w, http.StatusNotFound, loc.T("error.not_found"))
	case errors.Is(err, core.ErrStoreUnavailable):
		a.Metrics.RecordError(component, "store_unavailable")
		a.Logger.Error("Store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		a.fail(w, http.StatusServiceUnavailable, loc.T("error.store_unavailable"))
	case errors.Is(err, resolver.ErrEmptyName):
		a.fail(w, http.StatusBadRequest, loc.T("error.name_required"))
	default:
		a.Metrics.RecordError(component, "internal")
		a.Logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		a.fail(w, http.StatusInternalServerError, loc.T("error.generic"))
	}
}

func (a *API) fail(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, envelope{Error: message})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Debug("Failed to write response", zap.Error(err))
	}
}

func (a *API) localizer(r *http.Request) *i18n.Localizer {
	return i18n.NewLocalizer(i18n.Match(r.Header.Get("Accept-Language"), a.Language))
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
