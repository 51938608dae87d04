package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/models"
)

// RSSProvider reads articles from a fixed list of RSS/Atom feeds
type RSSProvider struct {
	parser  *gofeed.Parser
	feeds   []string
	timeout time.Duration
}

// NewRSSProvider creates new RSS provider
func NewRSSProvider(feeds []string, timeout time.Duration) *RSSProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RSSProvider{
		parser:  gofeed.NewParser(),
		feeds:   feeds,
		timeout: timeout,
	}
}

func (r *RSSProvider) GetName() string {
	return "rss"
}

// FetchArticles keeps items published since q.From whose title or description
// mention the topic. It fails only when every feed fails.
func (r *RSSProvider) FetchArticles(ctx context.Context, q Query) ([]models.RawArticle, error) {
	var (
		articles []models.RawArticle
		failed   int
		lastErr  error
	)

	topic := strings.ToLower(q.Topic)

	for _, feedURL := range r.feeds {
		feedCtx, cancel := context.WithTimeout(ctx, r.timeout)
		feed, err := r.parser.ParseURLWithContext(feedURL, feedCtx)
		cancel()
		if err != nil {
			logger.Warn("failed to fetch feed", zap.String("url", feedURL), zap.Error(err))
			failed++
			lastErr = err
			continue
		}

		for _, item := range feed.Items {
			if item.PublishedParsed != nil && item.PublishedParsed.Before(q.From) {
				continue
			}
			if topic != "" && !mentions(item, topic) {
				continue
			}
			articles = append(articles, toRawArticle(feed, item))
		}
	}

	if failed == len(r.feeds) && failed > 0 {
		return nil, fmt.Errorf("all feeds failed: %w", lastErr)
	}

	return articles, nil
}

func mentions(item *gofeed.Item, topic string) bool {
	return strings.Contains(strings.ToLower(item.Title), topic) ||
		strings.Contains(strings.ToLower(item.Description), topic)
}

func toRawArticle(feed *gofeed.Feed, item *gofeed.Item) models.RawArticle {
	author := ""
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	} else if item.Author != nil {
		author = item.Author.Name
	}

	image := ""
	if item.Image != nil {
		image = item.Image.URL
	} else if len(item.Enclosures) > 0 && item.Enclosures[0] != nil && strings.HasPrefix(item.Enclosures[0].Type, "image/") {
		image = item.Enclosures[0].URL
	}

	article := models.RawArticle{
		Source:      &models.ArticleSource{Name: models.StringPtr(feed.Title)},
		Title:       models.StringPtr(item.Title),
		Description: models.StringPtr(item.Description),
		Author:      models.StringPtr(author),
		URL:         models.StringPtr(item.Link),
		URLToImage:  models.StringPtr(image),
		Content:     models.StringPtr(item.Content),
	}

	// items without a parseable date stay invalid
	if item.PublishedParsed != nil {
		article.PublishedAt = &models.FlexibleTime{Time: item.PublishedParsed.UTC()}
	}

	return article
}
