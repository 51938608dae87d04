// Package ingest pulls news articles from the configured source into the newspapers table.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/news"
	"github.com/selivandex/spectrum-feed/internal/events"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/models"
	"github.com/selivandex/spectrum-feed/pkg/validation"
)

var (
	// ErrUpstream means the news source could not be read; nothing was written
	ErrUpstream = errors.New("failed to fetch news")
	// ErrNoArticles means the source answered with an empty article list
	ErrNoArticles = errors.New("no news articles found")
)

// Store persists newspapers
type Store interface {
	LatestPublishedAt(ctx context.Context) (*time.Time, error)
	Exists(ctx context.Context, title, author string, publishedAt time.Time) (bool, error)
	InsertMany(ctx context.Context, papers []*models.Newspaper) (int, error)
}

// Config tunes the ingestion window
type Config struct {
	Topic string
	// Freshness skips the fetch while the newest stored article is younger than this
	Freshness time.Duration
	// Lookback is how far back articles are requested
	Lookback time.Duration
}

// Result summarizes one ingestion run
type Result struct {
	Fresh      bool `json:"fresh"`
	Fetched    int  `json:"fetched"`
	Invalid    int  `json:"invalid"`
	Duplicates int  `json:"duplicates"`
	Inserted   int  `json:"inserted"`
}

// Service runs news ingestion
type Service struct {
	store     Store
	provider  news.Provider
	publisher events.Publisher
	cfg       Config
	now       func() time.Time
}

// NewService creates new ingestion service
func NewService(store Store, provider news.Provider, publisher events.Publisher, cfg Config) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:     store,
		provider:  provider,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run fetches and stores new articles unless the store is still fresh
func (s *Service) Run(ctx context.Context) (*Result, error) {
	now := s.now()

	// Freshness guard: skip the upstream call while the newest article is recent
	latest, err := s.store.LatestPublishedAt(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.After(now.Add(-s.cfg.Freshness)) {
		logger.Info("newspapers are fresh, skipping fetch",
			zap.Time("latest_published_at", *latest),
		)
		return &Result{Fresh: true}, nil
	}

	// Sources take a calendar date, computed in UTC
	articles, err := s.provider.FetchArticles(ctx, news.Query{
		Topic: s.cfg.Topic,
		From:  now.UTC().Add(-s.cfg.Lookback),
	})
	if err != nil {
		logger.Error("news fetch failed",
			zap.String("provider", s.provider.GetName()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	result := &Result{Fetched: len(articles)}
	queue := make([]*models.Newspaper, 0, len(articles))

	for i := range articles {
		article := &articles[i]
		if err := validation.Struct(article); err != nil {
			logger.Warn("skipping invalid article",
				zap.Int("index", i),
				zap.Error(err),
			)
			result.Invalid++
			continue
		}

		paper, err := article.ToNewspaper()
		if err != nil {
			logger.Warn("skipping unconvertible article", zap.Int("index", i), zap.Error(err))
			result.Invalid++
			continue
		}

		// Same title, author and publication time means already stored
		exists, err := s.store.Exists(ctx, paper.Title, paper.Author, paper.PublishedAt)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Duplicates++
			continue
		}

		queue = append(queue, paper)
	}

	// One bulk insert, conflicting rows are ignored
	inserted, err := s.store.InsertMany(ctx, queue)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted

	logger.Info("news ingestion completed",
		zap.Int("fetched", result.Fetched),
		zap.Int("invalid", result.Invalid),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("inserted", result.Inserted),
	)

	if inserted > 0 {
		_ = s.publisher.Publish(ctx, events.Event{Type: events.NewspapersIngested, Count: inserted})
	}

	return result, nil
}
