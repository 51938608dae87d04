package ai

import (
	"time"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
)

const (
	deepseekAPIURL       = "https://api.deepseek.com/v1"
	defaultDeepSeekModel = "deepseek-chat"
)

// NewDeepSeekProvider creates a DeepSeek provider on the OpenAI-compatible API.
// DeepSeek only supports json_object output, so the schema travels in the prompt.
func NewDeepSeekProvider(cfg *config.AIProviderConfig, timeout time.Duration) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = deepseekAPIURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultDeepSeekModel
	}

	return &OpenAIProvider{
		client:         newOpenAIClient(cfg.APIKey, baseURL, timeout),
		name:           "deepseek",
		model:          model,
		cost:           0.0007,
		jsonObjectOnly: true,
	}
}
