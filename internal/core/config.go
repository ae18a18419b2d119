package core

import (
	"time"
)

const (
	DefaultServerPort          = 8080
	DefaultStorePath           = "./fujirock.db"
	DefaultLanguage            = "en"
	DefaultFloodLimitPerMinute = 30
	DefaultAlternativeCount    = 5
	DefaultDuplicateMinTier    = "low"
	DefaultPreviewSearchLimit  = 5
	DefaultTopTracks           = 10
	DefaultWikiCacheTTL        = time.Hour
	DefaultWikiCacheSize       = 512
	DefaultDedupCapacity       = 10000
	DefaultDedupFalsePositive  = 0.001
	DefaultLLMMaxTokens        = 500
	DefaultLLMTemperature      = 0.7
)

type Config struct {
	Store   StoreConfig
	Spotify SpotifyConfig
	ITunes  ITunesConfig
	Wiki    WikiConfig
	LLM     LLMConfig
	Server  ServerConfig
	Log     LogConfig
	Match   MatchConfig
	App     AppConfig
}

type StoreConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Market       string
}

// Enabled reports whether streaming catalog credentials were provided.
func (c SpotifyConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type ITunesConfig struct {
	BaseURL           string
	Country           string
	Timeout           time.Duration
	RequestsPerSecond float64
	SearchLimit       int
}

type WikiConfig struct {
	// BaseURL may contain a %s placeholder for the language subdomain.
	BaseURL           string
	Language          string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
	CacheSize         int
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// MatchConfig tunes name resolution.
type MatchConfig struct {
	// DuplicateMinTier is the lowest tier that blocks artist creation.
	DuplicateMinTier string
	AlternativeCount int
}

type AppConfig struct {
	Language               string
	FloodLimitPerMinute    int
	TopTracks              int
	DedupCapacity          int
	DedupFalsePositiveRate float64
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:        DefaultStorePath,
			BusyTimeout: 5 * time.Second,
		},
		Spotify: SpotifyConfig{
			Market: "US",
		},
		ITunes: ITunesConfig{
			BaseURL:           "https://itunes.apple.com/search",
			Country:           "US",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1,
			SearchLimit:       DefaultPreviewSearchLimit,
		},
		Wiki: WikiConfig{
			BaseURL:           "https://%s.wikipedia.org/api/rest_v1/page/summary/",
			Language:          "en",
			UserAgent:         "fujirock/1.0",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			CacheTTL:          DefaultWikiCacheTTL,
			CacheSize:         DefaultWikiCacheSize,
		},
		LLM: LLMConfig{
			Provider:    "none",
			MaxTokens:   DefaultLLMMaxTokens,
			Temperature: DefaultLLMTemperature,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Match: MatchConfig{
			DuplicateMinTier: DefaultDuplicateMinTier,
			AlternativeCount: DefaultAlternativeCount,
		},
		App: AppConfig{
			Language:               DefaultLanguage,
			FloodLimitPerMinute:    DefaultFloodLimitPerMinute,
			TopTracks:              DefaultTopTracks,
			DedupCapacity:          DefaultDedupCapacity,
			DedupFalsePositiveRate: DefaultDedupFalsePositive,
		},
	}
}
