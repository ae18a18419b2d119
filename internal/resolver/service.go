// Package resolver detects duplicate artists, resolves free-text names to
// stored artists and runs ranked artist searches.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fujirock/internal/core"
	"fujirock/pkg/fuzzy"
)

// ErrEmptyName is returned by CreateArtist for a blank name.
var ErrEmptyName = errors.New("artist name is empty")

// Service resolves artist names against the content store. Every call works
// on a fresh snapshot of the stored artists.
type Service struct {
	store  Store
	ranker *fuzzy.Ranker
	opts   Options
	logger *zap.Logger
}

// NewService creates a resolver.
func NewService(store Store, ranker *fuzzy.Ranker, opts Options, logger *zap.Logger) *Service {
	if opts.AlternativeCount < 0 {
		opts.AlternativeCount = 0
	}
	if opts.DuplicateMinTier < fuzzy.TierLow {
		opts.DuplicateMinTier = fuzzy.TierLow
	}
	return &Service{
		store:  store,
		ranker: ranker,
		opts:   opts,
		logger: logger,
	}
}

// CheckDuplicate compares name against every stored artist name and returns
// the best match when its tier reaches the configured minimum. A nil
// Duplicate means the name is free.
func (s *Service) CheckDuplicate(ctx context.Context, name string) (*Duplicate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, storeError("listing artists for duplicate check", err)
	}

	rs := s.ranker.Rank(name, nameCandidates(artists), fuzzy.Page{Limit: 1})
	best, ok := rs.Best()
	if !ok || best.Tier < s.opts.DuplicateMinTier {
		return nil, nil
	}

	existing := artists[best.Index]
	s.logger.Info("Duplicate artist detected",
		zap.String("name", name),
		zap.String("existing_id", existing.ID),
		zap.String("existing_name", existing.Name),
		zap.Float64("score", best.Score),
		zap.Stringer("tier", best.Tier))

	return &Duplicate{
		ExistingID:  existing.ID,
		MatchedName: existing.Name,
		Score:       best.Score,
		Tier:        best.Tier,
	}, nil
}

// CreateArtist stores a new artist unless a similar one exists. The store's
// unique normalized-name index settles concurrent creations of one name.
func (s *Service) CreateArtist(ctx context.Context, in core.NewArtist) (*CreateResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrEmptyName
	}

	dup, err := s.CheckDuplicate(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return &CreateResult{Duplicate: dup}, nil
	}

	created, err := s.store.InsertArtist(ctx, in)
	if errors.Is(err, core.ErrDuplicateName) {
		s.logger.Warn("Artist inserted concurrently", zap.String("name", in.Name))
		return s.duplicateAfterRace(ctx, in.Name)
	}
	if err != nil {
		return nil, storeError("inserting artist", err)
	}

	s.logger.Info("Artist created", zap.String("id", created.ID), zap.String("name", created.Name))
	return &CreateResult{Artist: created}, nil
}

func (s *Service) duplicateAfterRace(ctx context.Context, name string) (*CreateResult, error) {
	dup, err := s.CheckDuplicate(ctx, name)
	if err != nil {
		return nil, err
	}
	if dup == nil {
		dup = &Duplicate{MatchedName: name, Score: 1.0, Tier: fuzzy.TierExact}
	}
	return &CreateResult{Duplicate: dup}, nil
}

// ResolveByName finds the stored artist that best matches name. An exact
// name lookup is tried first; on a miss all artists are ranked and the best
// match is returned together with the runners-up.
func (s *Service) ResolveByName(ctx context.Context, name string) (*Resolution, error) {
	if strings.TrimSpace(name) == "" {
		return &Resolution{}, nil
	}

	exact, err := s.store.GetArtistByName(ctx, name)
	switch {
	case err == nil:
		return &Resolution{
			Found:     true,
			Artist:    exact,
			MatchType: MatchExact,
			Score:     1.0,
			Tier:      fuzzy.TierExact,
		}, nil
	case !errors.Is(err, core.ErrNotFound):
		return nil, storeError("looking up artist by name", err)
	}

	count, err := s.store.CountArtists(ctx)
	if err != nil {
		return nil, storeError("counting artists", err)
	}
	if count == 0 {
		return &Resolution{}, nil
	}

	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, storeError("listing artists", err)
	}

	rs := s.ranker.Rank(name, nameCandidates(artists), fuzzy.Page{Limit: s.opts.AlternativeCount + 1})
	best, ok := rs.Best()
	if !ok {
		s.logger.Debug("No artist matched", zap.String("name", name), zap.Int("candidates", len(artists)))
		return &Resolution{}, nil
	}

	artist := artists[best.Index]
	res := &Resolution{
		Found:        true,
		Artist:       &artist,
		MatchType:    MatchFuzzy,
		Score:        best.Score,
		Tier:         best.Tier,
		Alternatives: toCandidates(artists, rs.Results[1:]),
	}

	s.logger.Debug("Artist resolved",
		zap.String("name", name),
		zap.String("matched", artist.Name),
		zap.Float64("score", best.Score),
		zap.Int("alternatives", len(res.Alternatives)))

	return res, nil
}

// Search ranks artists by name, with a small bonus for descriptions that
// mention the query, and returns the requested page. A blank query lists
// every artist in store order.
func (s *Service) Search(ctx context.Context, query string, page fuzzy.Page) (*SearchResult, error) {
	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, storeError("listing artists for search", err)
	}

	candidates := make([]fuzzy.Candidate, len(artists))
	for i, a := range artists {
		candidates[i] = fuzzy.Candidate{ID: a.ID, Text: a.Name, Secondary: a.Description}
	}

	rs := s.ranker.Rank(query, candidates, page)
	result := &SearchResult{
		Artists:    toCandidates(artists, rs.Results),
		Total:      rs.Total,
		Offset:     rs.Offset,
		Limit:      rs.Limit,
		SearchType: searchTypeFor(rs),
		TopTier:    rs.TopTier,
		BestScore:  rs.BestScore,
	}

	s.logger.Debug("Artist search",
		zap.String("query", query),
		zap.String("search_type", string(result.SearchType)),
		zap.Int("total", result.Total))

	return result, nil
}

func searchTypeFor(rs fuzzy.ResultSet) SearchType {
	if rs.Mode == fuzzy.ModePassthrough {
		return SearchBrowse
	}
	switch {
	case rs.Total == 0:
		return SearchNoResults
	case rs.TopTier == fuzzy.TierExact:
		return SearchExact
	case rs.TopTier == fuzzy.TierHigh:
		return SearchHighSimilarity
	default:
		return SearchFuzzy
	}
}

func nameCandidates(artists []core.Artist) []fuzzy.Candidate {
	candidates := make([]fuzzy.Candidate, len(artists))
	for i, a := range artists {
		candidates[i] = fuzzy.Candidate{ID: a.ID, Text: a.Name}
	}
	return candidates
}

func toCandidates(artists []core.Artist, results []fuzzy.MatchResult) []Candidate {
	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = Candidate{Artist: artists[r.Index], Score: r.Score, Tier: r.Tier}
	}
	return out
}

func storeError(op string, err error) error {
	if errors.Is(err, core.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}
