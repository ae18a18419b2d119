// Package wiki fetches artist summaries from the Wikipedia REST API.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fujirock/internal/core"
)

const maxResponseBytes = 1024 * 1024

// summaryResponse is the subset of the page summary payload we use.
type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	Lang        string `json:"lang"`
	Thumbnail   struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Client fetches page summaries.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	baseURL   string
	language  string
	userAgent string
	cache     Cache
	logger    *zap.Logger
}

// NewClient creates a client. A nil cache disables caching.
func NewClient(cfg core.WikiConfig, cache Cache, logger *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		baseURL:   cfg.BaseURL,
		language:  lang,
		userAgent: cfg.UserAgent,
		cache:     cache,
		logger:    logger.With(zap.String("source", "wikipedia")),
	}
}

// Summary returns the page summary for title in lang, or the client's
// default language when lang is empty. Missing pages and disambiguation
// pages yield core.ErrNotFound.
func (c *Client) Summary(ctx context.Context, title, lang string) (*core.WikiSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, core.ErrNotFound
	}
	if lang == "" {
		lang = c.language
	}

	key := cacheKey(lang, title)
	if c.cache != nil {
		if s, ok := c.cache.Get(key); ok {
			return s, nil
		}
	}

	summary, err := c.fetch(ctx, title, lang)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(key, summary)
	}
	return summary, nil
}

// SummaryWithFallback tries each language in order and returns the first
// page found.
func (c *Client) SummaryWithFallback(ctx context.Context, title string, langs ...string) (*core.WikiSummary, error) {
	if len(langs) == 0 {
		langs = []string{c.language}
	}
	var lastErr error
	for _, lang := range langs {
		s, err := c.Summary(ctx, title, lang)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Invalidate drops a cached summary.
func (c *Client) Invalidate(title, lang string) {
	if c.cache != nil {
		c.cache.Invalidate(cacheKey(lang, strings.TrimSpace(title)))
	}
}

func (c *Client) fetch(ctx context.Context, title, lang string) (*core.WikiSummary, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wikipedia rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(title, lang), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.logger.Debug("Page not found", zap.String("title", title), zap.String("lang", lang))
		return nil, fmt.Errorf("wikipedia page %q (%s): %w", title, lang, core.ErrNotFound)
	default:
		return nil, fmt.Errorf("wikipedia API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading wikipedia response: %w", err)
	}

	var sr summaryResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to decode wikipedia response: %w", err)
	}
	if sr.Type == "disambiguation" {
		return nil, fmt.Errorf("wikipedia page %q (%s) is a disambiguation page: %w", title, lang, core.ErrNotFound)
	}

	if sr.Lang == "" {
		sr.Lang = lang
	}
	return &core.WikiSummary{
		Title:       sr.Title,
		Description: sr.Description,
		Extract:     sr.Extract,
		ImageURL:    sr.Thumbnail.Source,
		PageURL:     sr.ContentURLs.Desktop.Page,
		Language:    sr.Lang,
	}, nil
}

func (c *Client) pageURL(title, lang string) string {
	base := c.baseURL
	if strings.Contains(base, "%s") {
		base = fmt.Sprintf(base, lang)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
