package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const maxPageBytes = 2 << 20

// Reader downloads an article page and extracts its readable text
type Reader struct {
	client   *http.Client
	maxChars int
}

// NewReader creates a page reader. Text longer than maxChars runes is truncated.
func NewReader(timeout time.Duration, maxChars int) *Reader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Reader{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
	}
}

// Text returns the main text of the page at rawURL
func (r *Reader) Text(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Scheme == "" {
		return "", fmt.Errorf("invalid article url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; spectrum-feed)")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if text == "" {
		return "", fmt.Errorf("no content extracted from %s", rawURL)
	}

	if r.maxChars > 0 {
		if runes := []rune(text); len(runes) > r.maxChars {
			text = string(runes[:r.maxChars])
		}
	}

	return text, nil
}
