// Package enrich fills in artist details from the encyclopedia, the streaming
// catalog, the preview catalog and the description generator.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fujirock/internal/core"
	"fujirock/internal/preview"
	"fujirock/internal/store"
	"fujirock/pkg/fuzzy"
)

// Source names used in Report.Errors.
const (
	SourceWiki        = "wiki"
	SourceCatalog     = "catalog"
	SourceTracks      = "tracks"
	SourcePreview     = "preview"
	SourceDescription = "description"
)

// Store is the content store as seen by the enricher.
type Store interface {
	GetArtistByID(ctx context.Context, id string) (*core.Artist, error)
	UpdateArtistEnrichment(ctx context.Context, id string, e core.ArtistEnrichment) error
	UpsertSong(ctx context.Context, song core.Song) (*core.Song, error)
	InsertAIDescription(ctx context.Context, d core.AIDescription) (*core.AIDescription, error)
}

// PreviewMatcher finds preview audio for a track.
type PreviewMatcher interface {
	Match(ctx context.Context, artist, track string) (*preview.Match, error)
}

// Options tunes an Enricher.
type Options struct {
	// WikiLanguages are tried in order until a page is found.
	WikiLanguages       []string
	DescriptionLanguage string
	TopTracks           int
	// MinDurationScore rejects preview matches whose length differs too much
	// from the catalog track. Zero accepts any length.
	MinDurationScore float64
}

// DefaultOptions returns options for English pages and descriptions.
func DefaultOptions() Options {
	return Options{
		WikiLanguages:       []string{core.DefaultLanguage},
		DescriptionLanguage: core.DefaultLanguage,
		TopTracks:           core.DefaultTopTracks,
		MinDurationScore:    0.5,
	}
}

// Report summarizes one enrichment run. Failures of individual sources are
// listed in Errors and do not abort the run.
type Report struct {
	ArtistID        string
	WikiFound       bool
	CatalogFound    bool
	TracksStored    int
	PreviewsMatched int
	PreviewsSkipped int
	Description     bool
	Errors          map[string]string
}

func (r *Report) fail(source string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[source] = err.Error()
}

// Enricher gathers external data for stored artists. Any dependency except
// the store may be nil, in which case that step is skipped.
type Enricher struct {
	store     Store
	wiki      core.Encyclopedia
	catalog   core.StreamingCatalog
	previews  PreviewMatcher
	describer core.DescriptionGenerator
	dedup     core.DedupStore
	cleaner   *fuzzy.QueryCleaner
	opts      Options
	logger    *zap.Logger
}

// Dependencies groups the collaborators of an Enricher.
type Dependencies struct {
	Store     Store
	Wiki      core.Encyclopedia
	Catalog   core.StreamingCatalog
	Previews  PreviewMatcher
	Describer core.DescriptionGenerator
	Dedup     core.DedupStore
}

func NewEnricher(deps Dependencies, opts Options, logger *zap.Logger) *Enricher {
	if len(opts.WikiLanguages) == 0 {
		opts.WikiLanguages = []string{core.DefaultLanguage}
	}
	if opts.TopTracks <= 0 {
		opts.TopTracks = core.DefaultTopTracks
	}
	return &Enricher{
		store:     deps.Store,
		wiki:      deps.Wiki,
		catalog:   deps.Catalog,
		previews:  deps.Previews,
		describer: deps.Describer,
		dedup:     deps.Dedup,
		cleaner:   fuzzy.NewQueryCleaner(),
		opts:      opts,
		logger:    logger,
	}
}

// Enrich fetches the encyclopedia page and the catalog artist concurrently,
// stores what was found, then stores top tracks with previews and a
// generated description. It fails only when the artist cannot be loaded or
// the store rejects a write.
func (e *Enricher) Enrich(ctx context.Context, artistID string) (*Report, error) {
	artist, err := e.store.GetArtistByID(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("loading artist %s: %w", artistID, err)
	}

	report := &Report{ArtistID: artist.ID}
	var mu sync.Mutex
	var summary *core.WikiSummary
	var catalogArtist *core.CatalogArtist

	g, gctx := errgroup.WithContext(ctx)
	if e.wiki != nil {
		g.Go(func() error {
			s, err := e.fetchSummary(gctx, artist.Name)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary = s
			case !errors.Is(err, core.ErrNotFound):
				report.fail(SourceWiki, err)
			}
			return nil
		})
	}
	if e.catalog != nil {
		g.Go(func() error {
			a, err := e.catalog.FindArtist(gctx, artist.Name)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				catalogArtist = a
			case !errors.Is(err, core.ErrNotFound):
				report.fail(SourceCatalog, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.WikiFound = summary != nil
	report.CatalogFound = catalogArtist != nil

	if update, changed := mergeEnrichment(artist, summary, catalogArtist); changed {
		if err := e.store.UpdateArtistEnrichment(ctx, artist.ID, update); err != nil {
			return nil, fmt.Errorf("storing enrichment for %s: %w", artist.ID, err)
		}
	}

	if catalogArtist != nil {
		if err := e.storeTopTracks(ctx, artist, catalogArtist.ID, report); err != nil {
			return nil, err
		}
	}

	if summary != nil && e.describer != nil {
		if err := e.storeDescription(ctx, artist, summary, catalogArtist, report); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Artist enriched",
		zap.String("artist_id", artist.ID),
		zap.String("name", artist.Name),
		zap.Bool("wiki", report.WikiFound),
		zap.Bool("catalog", report.CatalogFound),
		zap.Int("tracks", report.TracksStored),
		zap.Int("previews", report.PreviewsMatched),
		zap.Bool("description", report.Description),
		zap.Int("errors", len(report.Errors)))

	return report, nil
}

func (e *Enricher) fetchSummary(ctx context.Context, title string) (*core.WikiSummary, error) {
	err := error(core.ErrNotFound)
	for _, lang := range e.opts.WikiLanguages {
		var s *core.WikiSummary
		s, err = e.wiki.Summary(ctx, title, lang)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
	}
	return nil, err
}

// mergeEnrichment fills fields the artist does not have yet. Catalog images
// and genres take precedence over the encyclopedia's.
func mergeEnrichment(artist *core.Artist, s *core.WikiSummary, c *core.CatalogArtist) (core.ArtistEnrichment, bool) {
	var out core.ArtistEnrichment

	if s != nil {
		out.WikiExtract = s.Extract
		out.WikiURL = s.PageURL
		if artist.Description == "" {
			out.Description = s.Extract
		}
		if artist.ImageURL == "" {
			out.ImageURL = s.ImageURL
		}
	}
	if c != nil {
		out.SpotifyID = c.ID
		if artist.ImageURL == "" && c.ImageURL != "" {
			out.ImageURL = c.ImageURL
		}
		if len(artist.Genres) == 0 {
			out.Genres = c.Genres
		}
	}

	changed := out.WikiExtract != "" || out.WikiURL != "" || out.Description != "" ||
		out.ImageURL != "" || out.SpotifyID != "" || len(out.Genres) > 0
	return out, changed
}

func (e *Enricher) storeTopTracks(ctx context.Context, artist *core.Artist, catalogID string, report *Report) error {
	tracks, err := e.catalog.TopTracks(ctx, catalogID, e.opts.TopTracks)
	if err != nil {
		report.fail(SourceTracks, err)
		return nil
	}

	for _, t := range tracks {
		song := core.Song{
			ArtistID:   artist.ID,
			Title:      t.Title,
			AlbumName:  t.Album,
			Duration:   t.Duration,
			PreviewURL: t.PreviewURL,
			SpotifyID:  t.ID,
		}
		if song.PreviewURL == "" {
			e.attachPreview(ctx, artist.Name, &song, report)
		}

		if _, err := e.store.UpsertSong(ctx, song); err != nil {
			return fmt.Errorf("storing song %q: %w", t.Title, err)
		}
		report.TracksStored++
	}
	return nil
}

func (e *Enricher) attachPreview(ctx context.Context, artistName string, song *core.Song, report *Report) {
	if e.previews == nil {
		return
	}

	key := store.PreviewKey(artistName, song.Title)
	if e.dedup != nil {
		if e.dedup.Has(key) {
			report.PreviewsSkipped++
			return
		}
		e.dedup.Add(key)
	}

	match, err := e.previews.Match(ctx, artistName, e.cleaner.Title(song.Title))
	if err != nil {
		if e.dedup != nil {
			e.dedup.Remove(key)
		}
		report.fail(SourcePreview, err)
		return
	}
	if match == nil || !match.Track.HasPreview() {
		return
	}

	if tolerance := e.cleaner.DurationTolerance(song.Duration, match.Track.Duration); tolerance < e.opts.MinDurationScore {
		e.logger.Debug("Preview rejected on duration",
			zap.String("track", song.Title),
			zap.Duration("catalog", song.Duration),
			zap.Duration("preview", match.Track.Duration),
			zap.Float64("tolerance", tolerance))
		return
	}

	song.PreviewURL = match.Track.PreviewURL
	song.ITunesURL = match.Track.TrackURL
	report.PreviewsMatched++
}

func (e *Enricher) storeDescription(
	ctx context.Context,
	artist *core.Artist,
	summary *core.WikiSummary,
	catalogArtist *core.CatalogArtist,
	report *Report,
) error {
	genres := artist.Genres
	if len(genres) == 0 && catalogArtist != nil {
		genres = catalogArtist.Genres
	}

	desc, err := e.describer.DescribeArtist(ctx, core.DescribeRequest{
		ArtistName: artist.Name,
		Extract:    summary.Extract,
		Genres:     genres,
		Language:   e.opts.DescriptionLanguage,
	})
	if errors.Is(err, core.ErrNotConfigured) {
		return nil
	}
	if err != nil {
		report.fail(SourceDescription, err)
		return nil
	}

	desc.ArtistID = artist.ID
	if _, err := e.store.InsertAIDescription(ctx, *desc); err != nil {
		return fmt.Errorf("storing description for %s: %w", artist.ID, err)
	}
	report.Description = true
	return nil
}
