package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"fujirock/internal/core"
)

const defaultOpenAIModel = "gpt-4o"

type OpenAIClient struct {
	config core.LLMConfig
	logger *zap.Logger
	client *openai.Client
}

func NewOpenAIClient(config core.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	var opts []option.RequestOption
	opts = append(opts, option.WithAPIKey(config.APIKey))

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := openai.NewClient(opts...)

	return &OpenAIClient{
		config: config,
		logger: logger,
		client: &client,
	}, nil
}

func (o *OpenAIClient) Complete(ctx context.Context, system, user string) (Completion, error) {
	o.logger.Debug("Calling OpenAI", zap.String("model", o.getModel()))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       o.getModel(),
		Temperature: openai.Float(temperature(o.config)),
		MaxTokens:   openai.Int(int64(maxTokens(o.config))),
	})
	if err != nil {
		o.logger.Error("OpenAI API call failed", zap.Error(err))
		return Completion{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("no response from OpenAI")
	}

	return Completion{
		Text:       resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

func (o *OpenAIClient) getModel() shared.ChatModel {
	if o.config.Model != "" {
		return o.config.Model
	}
	return defaultOpenAIModel
}

func maxTokens(config core.LLMConfig) int {
	if config.MaxTokens <= 0 {
		return core.DefaultLLMMaxTokens
	}
	return config.MaxTokens
}

func temperature(config core.LLMConfig) float64 {
	if config.Temperature <= 0 {
		return core.DefaultLLMTemperature
	}
	return config.Temperature
}
