package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fujirock/internal/core"
)

const defaultOllamaModel = "llama3.2"

type OllamaClient struct {
	config     core.LLMConfig
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
}

type OllamaRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type OllamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func NewOllamaClient(config core.LLMConfig, logger *zap.Logger) (*OllamaClient, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaClient{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

func (o *OllamaClient) Complete(ctx context.Context, system, user string) (Completion, error) {
	model := o.config.Model
	if model == "" {
		model = defaultOllamaModel
	}

	reqBody := OllamaRequest{
		Model:  model,
		System: system,
		Prompt: user,
		Stream: false,
		Options: map[string]any{
			"temperature": temperature(o.config),
			"num_predict": maxTokens(o.config),
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return Completion{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("Ollama API call failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Completion{}, fmt.Errorf("Ollama API returned status %d", resp.StatusCode)
	}

	var ollamaResp OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return Completion{}, fmt.Errorf("failed to decode Ollama response: %w", err)
	}

	if ollamaResp.Model == "" {
		ollamaResp.Model = model
	}
	return Completion{
		Text:       ollamaResp.Response,
		Model:      ollamaResp.Model,
		TokensUsed: ollamaResp.PromptEvalCount + ollamaResp.EvalCount,
	}, nil
}
