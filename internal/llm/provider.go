// Package llm generates artist descriptions with a configurable language model
// backend.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fujirock/internal/core"
)

// ErrNoSource is returned when there is no encyclopedia text to describe.
var ErrNoSource = errors.New("no source text for artist description")

// Completion is the text returned by a backend.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// Client is implemented by each backend.
type Client interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
}

type Provider struct {
	name   string
	config core.LLMConfig
	logger *zap.Logger
	client Client
}

func NewProvider(config core.LLMConfig, logger *zap.Logger) (*Provider, error) {
	var client Client
	var err error

	name := strings.ToLower(strings.TrimSpace(config.Provider))
	switch name {
	case "openai":
		client, err = NewOpenAIClient(config, logger)
	case "anthropic":
		client, err = NewAnthropicClient(config, logger)
	case "ollama":
		client, err = NewOllamaClient(config, logger)
	case "none", "":
		return &Provider{
			name:   "none",
			config: config,
			logger: logger,
			client: &NoOpClient{},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", name, err)
	}

	return &Provider{
		name:   name,
		config: config,
		logger: logger,
		client: client,
	}, nil
}

// Name returns the configured backend name.
func (p *Provider) Name() string {
	return p.name
}

// Enabled reports whether a real backend is configured.
func (p *Provider) Enabled() bool {
	_, noop := p.client.(*NoOpClient)
	return !noop
}

// DescribeArtist writes a short artist introduction from the encyclopedia
// extract in the requested language.
func (p *Provider) DescribeArtist(ctx context.Context, req core.DescribeRequest) (*core.AIDescription, error) {
	if !p.Enabled() {
		return nil, fmt.Errorf("llm: %w", core.ErrNotConfigured)
	}
	if strings.TrimSpace(req.Extract) == "" {
		return nil, fmt.Errorf("describing %q: %w", req.ArtistName, ErrNoSource)
	}

	lang := normalizeLanguage(req.Language)
	system, user := buildDescribePrompt(req, lang)

	c, err := p.client.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(c.Text)
	if text == "" {
		return nil, fmt.Errorf("empty description from %s", p.name)
	}

	p.logger.Debug("Artist description generated",
		zap.String("artist", req.ArtistName),
		zap.String("language", lang),
		zap.String("model", c.Model),
		zap.Int("tokens", c.TokensUsed))

	return &core.AIDescription{
		Content:    text,
		Language:   lang,
		Provider:   p.name,
		Model:      c.Model,
		TokensUsed: c.TokensUsed,
	}, nil
}

type NoOpClient struct{}

func (n *NoOpClient) Complete(context.Context, string, string) (Completion, error) {
	return Completion{}, fmt.Errorf("LLM provider not configured: %w", core.ErrNotConfigured)
}
