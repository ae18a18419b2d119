package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"fujirock/internal/core"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

type AnthropicClient struct {
	config core.LLMConfig
	logger *zap.Logger
	client *anthropic.Client
}

func NewAnthropicClient(config core.LLMConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	var opts []option.RequestOption
	opts = append(opts, option.WithAPIKey(config.APIKey))

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicClient{
		config: config,
		logger: logger,
		client: &client,
	}, nil
}

func (a *AnthropicClient) Complete(ctx context.Context, system, user string) (Completion, error) {
	model := a.config.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens(a.config)),
		System: []anthropic.TextBlockParam{{
			Text: system,
		}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(temperature(a.config)),
	})
	if err != nil {
		return Completion{}, fmt.Errorf("Anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Completion{}, fmt.Errorf("no response from Anthropic")
	}

	return Completion{
		Text:       text.String(),
		Model:      string(message.Model),
		TokensUsed: int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}, nil
}
