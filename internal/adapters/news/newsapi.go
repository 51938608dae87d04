package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/models"
)

const newsAPIURL = "https://newsapi.org/v2/everything"

// NewsAPIProvider fetches articles from the newsapi.org "everything" endpoint
type NewsAPIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPIProvider creates new NewsAPI provider
func NewNewsAPIProvider(apiKey, baseURL string, timeout time.Duration) *NewsAPIProvider {
	if baseURL == "" {
		baseURL = newsAPIURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NewsAPIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (n *NewsAPIProvider) GetName() string {
	return "newsapi"
}

func (n *NewsAPIProvider) FetchArticles(ctx context.Context, q Query) ([]models.RawArticle, error) {
	params := url.Values{}
	params.Set("q", q.Topic)
	params.Set("from", q.From.Format("2006-01-02"))
	params.Set("sortBy", "publishedAt")
	params.Set("apiKey", n.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Status   string            `json:"status"`
		Articles []json.RawMessage `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	articles := make([]models.RawArticle, len(result.Articles))
	for i, raw := range result.Articles {
		if err := json.Unmarshal(raw, &articles[i]); err != nil {
			logger.Debug("undecodable article",
				zap.Int("index", i),
				zap.Error(err),
			)
			articles[i] = models.RawArticle{}
		}
	}

	logger.Debug("fetched articles from newsapi",
		zap.String("topic", q.Topic),
		zap.Int("count", len(articles)),
	)

	return articles, nil
}
