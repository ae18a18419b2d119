package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	ResolutionsTotal    *prometheus.CounterVec
	SearchesTotal       *prometheus.CounterVec
	DuplicatesTotal     prometheus.Counter
	ArtistsCreatedTotal prometheus.Counter
	PreviewMatchesTotal *prometheus.CounterVec
	EnrichmentsTotal    *prometheus.CounterVec
	RateLimitedTotal    *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
}

// NewMetrics creates the service metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fujirock_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fujirock_http_request_duration_seconds",
				Help:    "Time spent serving HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fujirock_resolutions_total",
				Help: "Total number of name resolutions by outcome",
			},
			[]string{"outcome"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fujirock_searches_total",
				Help: "Total number of artist searches by search type",
			},
			[]string{"search_type"},
		),
		DuplicatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fujirock_duplicates_total",
				Help: "Total number of artist creations rejected as duplicates",
			},
		),
		ArtistsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fujirock_artists_created_total",
				Help: "Total number of artists created",
			},
		),
		PreviewMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fujirock_preview_matches_total",
				Help: "Total number of preview lookups by strategy",
			},
			[]string{"strategy"},
		),
		EnrichmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fujirock_enrichments_total",
				Help: "Total number of enrichment runs by status",
			},
			[]string{"status"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fujirock_rate_limited_total",
				Help: "Total number of requests rejected by the flood gate",
			},
			[]string{"scope"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fujirock_errors_total",
				Help: "Total number of errors",
			},
			[]string{"component", "type"},
		),
	}

	reg.MustRegister(
		metrics.RequestsTotal,
		metrics.RequestDuration,
		metrics.ResolutionsTotal,
		metrics.SearchesTotal,
		metrics.DuplicatesTotal,
		metrics.ArtistsCreatedTotal,
		metrics.PreviewMatchesTotal,
		metrics.EnrichmentsTotal,
		metrics.RateLimitedTotal,
		metrics.ErrorsTotal,
	)

	return metrics
}

func (m *Metrics) RecordRequest(route string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) RecordResolution(outcome string) {
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSearch(searchType string) {
	m.SearchesTotal.WithLabelValues(searchType).Inc()
}

func (m *Metrics) RecordDuplicate() {
	m.DuplicatesTotal.Inc()
}

func (m *Metrics) RecordArtistCreated() {
	m.ArtistsCreatedTotal.Inc()
}

func (m *Metrics) RecordPreview(strategy string) {
	m.PreviewMatchesTotal.WithLabelValues(strategy).Inc()
}

func (m *Metrics) RecordEnrichment(status string) {
	m.EnrichmentsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRateLimited(scope string) {
	m.RateLimitedTotal.WithLabelValues(scope).Inc()
}

func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
