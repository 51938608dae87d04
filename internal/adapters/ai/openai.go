package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/pkg/logger"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements AI provider for OpenAI-compatible chat completion APIs
type OpenAIProvider struct {
	client *openai.Client
	name   string
	model  string
	cost   float64
	// jsonObjectOnly is set for APIs without json_schema response formats;
	// the schema is then embedded in the system prompt.
	jsonObjectOnly bool
}

// NewOpenAIProvider creates new OpenAI provider
func NewOpenAIProvider(cfg *config.AIProviderConfig, timeout time.Duration) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client: newOpenAIClient(cfg.APIKey, cfg.BaseURL, timeout),
		name:   "openai",
		model:  model,
		// ~$0.15 per 1M input tokens, ~$0.60 per 1M output tokens
		cost: 0.001,
	}
}

func newOpenAIClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

func (o *OpenAIProvider) GetName() string {
	return o.name
}

func (o *OpenAIProvider) GetCost() float64 {
	return o.cost
}

func (o *OpenAIProvider) Generate(ctx context.Context, req *Request) (string, error) {
	system := req.System
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   req.Name,
			Schema: req.Schema,
		},
	}
	if o.jsonObjectOnly {
		system = withSchemaInstructions(system, req.Schema)
		format = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	startTime := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature:    req.Temperature,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", o.name, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	logger.Debug("chat completion response",
		zap.String("provider", o.name),
		zap.String("schema", req.Name),
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
