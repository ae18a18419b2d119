// Package main provides the fujirock CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"fujirock/internal/core"
	"fujirock/internal/enrich"
	"fujirock/internal/flood"
	httpserver "fujirock/internal/http"
	"fujirock/internal/i18n"
	"fujirock/internal/itunes"
	"fujirock/internal/llm"
	"fujirock/internal/preview"
	"fujirock/internal/resolver"
	"fujirock/internal/spotify"
	"fujirock/internal/store"
	"fujirock/internal/wiki"
	"fujirock/pkg/fuzzy"
)

const (
	defaultServerHost = "0.0.0.0"
	envPrefix         = "FUJIROCK"
	version           = "1.0.0"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fujirock",
	Short: "Fujirock - festival artist catalog",
	Long: `Fujirock keeps a catalog of festival artists. It rejects near-duplicate names,
resolves misspelled names to stored artists, ranks searches and finds preview audio
for tracks in a catalog that shares no identifiers with the streaming service.`,
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file, rotated")
	rootCmd.PersistentFlags().String("store-path", core.DefaultStorePath, "SQLite database path")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("spotify-market", "US", "Spotify market for top tracks")
	rootCmd.PersistentFlags().String("itunes-country", "US", "iTunes store country")
	rootCmd.PersistentFlags().Float64("itunes-requests-per-second", 1, "iTunes request rate")
	rootCmd.PersistentFlags().Duration("wiki-cache-ttl", core.DefaultWikiCacheTTL, "Wikipedia summary cache TTL")
	rootCmd.PersistentFlags().Int("wiki-cache-size", core.DefaultWikiCacheSize, "Wikipedia summary cache entries")
	rootCmd.PersistentFlags().String("llm-provider", "none", "LLM provider (openai, anthropic, ollama, none)")
	rootCmd.PersistentFlags().String("llm-model", "", "LLM model name")
	rootCmd.PersistentFlags().String("llm-api-key", "", "LLM API key")
	rootCmd.PersistentFlags().String("llm-base-url", "", "LLM base URL (Ollama server)")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", core.DefaultServerPort, "HTTP server port")
	rootCmd.PersistentFlags().String("duplicate-min-tier", core.DefaultDuplicateMinTier,
		"lowest similarity tier that blocks artist creation (low, medium, high, exact)")
	rootCmd.PersistentFlags().Int("alternative-count", core.DefaultAlternativeCount, "alternatives reported by name resolution")
	rootCmd.PersistentFlags().Int("top-tracks", core.DefaultTopTracks, "top tracks stored per enriched artist")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	rootCmd.PersistentFlags().String("language", i18n.DefaultLanguage, fmt.Sprintf("Default API language (%s)", supportedLangs))
	rootCmd.PersistentFlags().Int("flood-limit-per-minute", core.DefaultFloodLimitPerMinute, "Maximum write requests per client per minute")
	rootCmd.PersistentFlags().Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	searchCmd.Flags().Int("offset", 0, "results to skip")
	searchCmd.Flags().Int("limit", 10, "maximum results")

	rootCmd.AddCommand(serveCmd, migrateCmd, searchCmd, resolveCmd, previewCmd)
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureStore(cfg)
	configureSpotify(cfg)
	configureITunes(cfg)
	configureWiki(cfg)
	configureLLM(cfg)
	configureServer(cfg)
	configureMatch(cfg)
	configureApp(cfg)

	return cfg
}

func configureStore(cfg *core.Config) {
	if path := viper.GetString("store-path"); path != "" {
		cfg.Store.Path = path
	}
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	if market := viper.GetString("spotify-market"); market != "" {
		cfg.Spotify.Market = strings.ToUpper(market)
	}
}

func configureITunes(cfg *core.Config) {
	if country := viper.GetString("itunes-country"); country != "" {
		cfg.ITunes.Country = strings.ToUpper(country)
	}
	if rps := viper.GetFloat64("itunes-requests-per-second"); rps > 0 {
		cfg.ITunes.RequestsPerSecond = rps
	}
}

func configureWiki(cfg *core.Config) {
	if ttl := viper.GetDuration("wiki-cache-ttl"); ttl > 0 {
		cfg.Wiki.CacheTTL = ttl
	}
	if size := viper.GetInt("wiki-cache-size"); size > 0 {
		cfg.Wiki.CacheSize = size
	}
}

func configureLLM(cfg *core.Config) {
	cfg.LLM.Provider = viper.GetString("llm-provider")
	cfg.LLM.Model = viper.GetString("llm-model")
	cfg.LLM.APIKey = viper.GetString("llm-api-key")
	cfg.LLM.BaseURL = viper.GetString("llm-base-url")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")
	if format := viper.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	cfg.Log.File = viper.GetString("log-file")
}

func configureMatch(cfg *core.Config) {
	tier := viper.GetString("duplicate-min-tier")
	if parsed, ok := fuzzy.ParseTier(tier); !ok || parsed == fuzzy.TierNone {
		fmt.Fprintf(os.Stderr, "Warning: Invalid duplicate tier '%s', falling back to '%s'\n",
			tier, core.DefaultDuplicateMinTier)
		tier = core.DefaultDuplicateMinTier
	}
	cfg.Match.DuplicateMinTier = tier

	cfg.Match.AlternativeCount = viper.GetInt("alternative-count")
	if cfg.Match.AlternativeCount < 0 {
		cfg.Match.AlternativeCount = core.DefaultAlternativeCount
	}
}

func configureApp(cfg *core.Config) {
	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}

	supportedLanguages := i18n.GetSupportedLanguages()
	if !slices.Contains(supportedLanguages, cfg.App.Language) {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'. Supported languages: %s\n",
			cfg.App.Language, i18n.DefaultLanguage, strings.Join(supportedLanguages, ", "))
		cfg.App.Language = i18n.DefaultLanguage
	}
	cfg.Wiki.Language = cfg.App.Language

	cfg.App.FloodLimitPerMinute = viper.GetInt("flood-limit-per-minute")
	if cfg.App.FloodLimitPerMinute <= 0 {
		cfg.App.FloodLimitPerMinute = core.DefaultFloodLimitPerMinute
	}

	cfg.App.TopTracks = viper.GetInt("top-tracks")
	if cfg.App.TopTracks <= 0 {
		cfg.App.TopTracks = core.DefaultTopTracks
	}
}

func buildLogger(cfg core.LogConfig) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if cfg.Format == "text" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	builtLogger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	if cfg.File == "" {
		return builtLogger
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotator),
		zapCfg.Level,
	)
	return builtLogger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}

func runServe(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting fujirock",
		zap.String("version", version),
		zap.String("llm_provider", config.LLM.Provider),
		zap.Bool("spotify_enabled", config.Spotify.Enabled()),
		zap.String("store", config.Store.Path),
		zap.String("language", config.App.Language))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices(ctx)
	if err != nil {
		return err
	}
	defer svcs.close()

	return runServices(ctx, svcs)
}

type services struct {
	store      *store.Store
	catalog    *itunes.Client
	ranker     *fuzzy.Ranker
	resolver   *resolver.Service
	previews   *preview.Matcher
	enricher   *enrich.Enricher
	floodgate  *flood.Floodgate
	httpServer *httpserver.Server
}

func (s *services) close() {
	if s.floodgate != nil {
		stats := s.floodgate.GetStats()
		logger.Debug("Stopping floodgate",
			zap.Int("active_clients", stats.ActiveClients),
			zap.Int("limit_per_minute", stats.LimitPerMinute))
		s.floodgate.Stop()
	}
	if err := s.store.Close(); err != nil {
		logger.Debug("Failed to close store", zap.Error(err))
	}
}

// initializeCore opens the store and builds the name-matching services shared
// by the server and the CLI subcommands.
func initializeCore(ctx context.Context) (*services, error) {
	st, err := store.Open(ctx, config.Store, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	ranker := fuzzy.NewRanker(fuzzy.NewScorer(fuzzy.DefaultWeights()))

	opts := resolver.DefaultOptions()
	if tier, ok := fuzzy.ParseTier(config.Match.DuplicateMinTier); ok {
		opts.DuplicateMinTier = tier
	}
	opts.AlternativeCount = config.Match.AlternativeCount

	catalog := itunes.NewClient(config.ITunes, logger.Named("itunes"))
	previews := preview.NewMatcher(
		catalog,
		preview.DefaultWeights(),
		config.ITunes.SearchLimit,
		logger.Named("preview"),
	)

	return &services{
		store:    st,
		catalog:  catalog,
		ranker:   ranker,
		resolver: resolver.NewService(st, ranker, opts, logger.Named("resolver")),
		previews: previews,
	}, nil
}

func initializeServices(ctx context.Context) (*services, error) {
	svcs, err := initializeCore(ctx)
	if err != nil {
		return nil, err
	}

	enricher, err := createEnricher(ctx, svcs)
	if err != nil {
		svcs.close()
		return nil, err
	}
	svcs.enricher = enricher
	svcs.floodgate = flood.New(config.App.FloodLimitPerMinute)

	api := &httpserver.API{
		Resolver: svcs.resolver,
		Store:    svcs.store,
		Previews: svcs.previews,
		Enricher: svcs.enricher,
		Flood:    svcs.floodgate,
		Language: config.App.Language,
		Logger:   logger.Named("api"),
	}
	svcs.httpServer = httpserver.NewServer(&config.Server, api, logger.Named("http"))

	return svcs, nil
}

func createEnricher(ctx context.Context, svcs *services) (*enrich.Enricher, error) {
	cache := wiki.NewLRUCache(config.Wiki.CacheSize, config.Wiki.CacheTTL)

	describer, err := llm.NewProvider(config.LLM, logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	logger.Info("Description provider ready",
		zap.String("provider", describer.Name()),
		zap.Bool("enabled", describer.Enabled()))

	deps := enrich.Dependencies{
		Store:     svcs.store,
		Wiki:      wiki.NewClient(config.Wiki, cache, logger.Named("wiki")),
		Previews:  svcs.previews,
		Describer: describer,
		Dedup:     store.NewDedupStore(config.App.DedupCapacity, config.App.DedupFalsePositiveRate),
	}

	if config.Spotify.Enabled() {
		catalog, err := spotify.NewClient(ctx, config.Spotify, svcs.ranker, logger.Named("spotify"))
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify client: %w", err)
		}
		deps.Catalog = catalog
	} else {
		logger.Info("Spotify credentials not set, enrichment skips the streaming catalog")
	}

	opts := enrich.DefaultOptions()
	opts.WikiLanguages = wikiLanguages(config.App.Language)
	opts.DescriptionLanguage = config.App.Language
	opts.TopTracks = config.App.TopTracks

	return enrich.NewEnricher(deps, opts, logger.Named("enrich")), nil
}

// wikiLanguages tries the configured language first and English after it.
func wikiLanguages(lang string) []string {
	if lang == i18n.DefaultLanguage {
		return []string{lang}
	}
	return []string{lang, i18n.DefaultLanguage}
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	logger.Info("fujirock started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("fujirock stopped with error", zap.Error(err))
		return err
	}

	logger.Info("fujirock stopped gracefully")
	return nil
}

func validateConfig() error {
	if err := validateSpotifyConfig(); err != nil {
		return err
	}

	if err := validateLLMConfig(); err != nil {
		return err
	}

	return nil
}

func validateSpotifyConfig() error {
	if (config.Spotify.ClientID == "") != (config.Spotify.ClientSecret == "") {
		return fmt.Errorf("spotify client ID and secret must be set together")
	}
	return nil
}

func validateLLMConfig() error {
	switch config.LLM.Provider {
	case "", "none", "ollama":
		return nil
	case "openai", "anthropic":
		if config.LLM.APIKey == "" {
			return fmt.Errorf("LLM API key is required for provider: %s", config.LLM.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %s", config.LLM.Provider)
	}
}
