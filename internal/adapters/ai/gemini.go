package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/pkg/logger"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements AI provider for Google Gemini with native response schemas
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates new Gemini provider
func NewGeminiProvider(ctx context.Context, cfg *config.AIProviderConfig, timeout time.Duration) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) GetName() string {
	return "gemini"
}

func (g *GeminiProvider) GetCost() float64 {
	// flash pricing: ~$0.10 per 1M input tokens, ~$0.40 per 1M output tokens
	return 0.0005
}

func (g *GeminiProvider) Generate(ctx context.Context, req *Request) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(req.Temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    req.Schema.ToGenai(),
	}

	startTime := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	logger.Debug("Gemini response",
		zap.String("schema", req.Name),
		zap.String("model", g.model),
		zap.Duration("latency", time.Since(startTime)),
	)

	return text, nil
}
