package fuzzy

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Tier is a coarse confidence bucket derived from a score.
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierMedium
	TierHigh
	TierExact
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "none"
	}
}

// ParseTier parses a tier name as produced by Tier.String.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return TierExact, true
	case "high":
		return TierHigh, true
	case "medium":
		return TierMedium, true
	case "low":
		return TierLow, true
	case "none":
		return TierNone, true
	default:
		return TierNone, false
	}
}

// Candidate is a record compared against a query. Secondary is optional
// descriptive text that can nudge the score.
type Candidate struct {
	ID        string
	Text      string
	Secondary string
}

// MatchResult is the score of a single candidate.
type MatchResult struct {
	CandidateID string
	// Index is the candidate's position in the input slice.
	Index       int
	Score       float64
	Tier        Tier
	MatchedText string
}

// Mode tells how a result set was produced.
type Mode int

const (
	ModeRanked Mode = iota
	ModePassthrough
)

// Page selects a window of results. A Limit of zero or less is unbounded.
type Page struct {
	Offset int
	Limit  int
}

// ResultSet is the ranked and paginated output of Rank.
type ResultSet struct {
	Results []MatchResult
	Offset  int
	Limit   int
	// Total counts matches before pagination.
	Total     int
	TopTier   Tier
	BestScore float64
	Mode      Mode
}

// Best returns the highest ranked result on the page.
func (rs ResultSet) Best() (MatchResult, bool) {
	if len(rs.Results) == 0 {
		return MatchResult{}, false
	}
	return rs.Results[0], true
}

// Ranker scores candidates against a query, drops non-matches, orders the rest
// and paginates them.
type Ranker struct {
	scorer *Scorer
}

// NewRanker creates a ranker backed by scorer.
func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

// Rank scores candidates against query. A blank query returns every candidate
// in input order with TierNone. Results are ordered by descending score and
// ties keep their input order.
func (r *Ranker) Rank(query string, candidates []Candidate, page Page) ResultSet {
	if strings.TrimSpace(query) == "" {
		return r.passthrough(candidates, page)
	}

	w := r.scorer.weights
	normQuery := Normalize(query)
	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	useSecondary := utf8.RuneCountInString(lowerQuery) >= w.SecondaryMinQueryLen

	matches := make([]MatchResult, 0, len(candidates))
	for i, c := range candidates {
		if c.Text == "" {
			continue
		}
		normText := Normalize(c.Text)
		score := r.scorer.ScoreNormalized(normQuery, normText)

		if useSecondary && c.Secondary != "" && strings.Contains(strings.ToLower(c.Secondary), lowerQuery) {
			score = min(1.0, score+r.scorer.Score(query, c.Secondary)*w.SecondaryWeight)
		}

		if score == 0 {
			continue
		}

		matches = append(matches, MatchResult{
			CandidateID: c.ID,
			Index:       i,
			Score:       score,
			Tier:        r.tierFor(score, normQuery == normText),
			MatchedText: c.Text,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	rs := ResultSet{Total: len(matches), Mode: ModeRanked}
	if len(matches) > 0 {
		rs.TopTier = matches[0].Tier
		rs.BestScore = matches[0].Score
	}
	rs.Results, rs.Offset, rs.Limit = paginate(matches, page)

	return rs
}

// tierFor maps a score to a tier. Only exact name equality yields TierExact.
func (r *Ranker) tierFor(score float64, exact bool) Tier {
	w := r.scorer.weights
	switch {
	case exact:
		return TierExact
	case score >= w.HighThreshold:
		return TierHigh
	case score >= w.MediumThreshold:
		return TierMedium
	case score > 0:
		return TierLow
	default:
		return TierNone
	}
}

func (r *Ranker) passthrough(candidates []Candidate, page Page) ResultSet {
	all := make([]MatchResult, len(candidates))
	for i, c := range candidates {
		all[i] = MatchResult{CandidateID: c.ID, Index: i, Tier: TierNone, MatchedText: c.Text}
	}

	rs := ResultSet{Total: len(all), Mode: ModePassthrough, TopTier: TierNone}
	rs.Results, rs.Offset, rs.Limit = paginate(all, page)
	return rs
}

func paginate(results []MatchResult, page Page) ([]MatchResult, int, int) {
	offset := max(page.Offset, 0)
	if offset >= len(results) {
		return []MatchResult{}, offset, page.Limit
	}

	end := len(results)
	if page.Limit > 0 && page.Limit < end-offset {
		end = offset + page.Limit
	}

	return results[offset:end], offset, page.Limit
}
