package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/pkg/logger"
)

const (
	claudeAPIURL       = "https://api.anthropic.com/v1/messages"
	defaultClaudeModel = "claude-3-5-sonnet-20241022"
)

// ClaudeProvider implements AI provider for Claude
type ClaudeProvider struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewClaudeProvider creates new Claude provider
func NewClaudeProvider(cfg *config.AIProviderConfig, timeout time.Duration) *ClaudeProvider {
	url := cfg.BaseURL
	if url == "" {
		url = claudeAPIURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &ClaudeProvider{
		apiKey: cfg.APIKey,
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *ClaudeProvider) GetName() string {
	return "claude"
}

func (c *ClaudeProvider) GetCost() float64 {
	// Claude Sonnet pricing: ~$3 per 1M input tokens, ~$15 per 1M output tokens
	return 0.02
}

func (c *ClaudeProvider) Generate(ctx context.Context, req *Request) (string, error) {
	reqBody := map[string]any{
		"model":       c.model,
		"max_tokens":  2048,
		"system":      withSchemaInstructions(req.System, req.Schema),
		"temperature": req.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": req.User},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	startTime := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	for _, block := range result.Content {
		if block.Text != "" {
			logger.Debug("Claude response",
				zap.String("schema", req.Name),
				zap.Duration("latency", time.Since(startTime)),
			)
			return extractJSON(block.Text), nil
		}
	}

	return "", ErrEmptyResponse
}
