package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/events"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
	// MaxPage keeps (page-1)*limit far from int overflow
	MaxPage = 100_000
)

// Store reads feed records
type Store interface {
	ListPosts(ctx context.Context, offset, limit int, entityID string) ([]models.PostWithRelations, error)
	ListActivities(ctx context.Context, offset, limit int) ([]models.Activity, error)
}

// Cache is an optional read-through page cache
type Cache interface {
	Get(ctx context.Context, name string, dst any) (bool, error)
	Set(ctx context.Context, name string, value any) error
	Invalidate(ctx context.Context) error
}

// PostItem is a feed post with its presentation fields
type PostItem struct {
	models.PostWithRelations
	Description string `json:"description"`
	TimeAgo     string `json:"time_ago"`
}

// ActivityItem is an entity mention with its age
type ActivityItem struct {
	models.Activity
	TimeAgo string `json:"time_ago"`
}

// Page is one page of feed items
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PostsQuery selects a page of the post feed
type PostsQuery struct {
	Page     int
	Limit    int
	EntityID string
}

// Service serves paginated feed reads
type Service struct {
	store Store
	cache Cache
	now   func() time.Time
}

// NewService creates feed service. cache may be nil.
func NewService(store Store, cache Cache) *Service {
	return &Service{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// Paging applies defaults and bounds to page and limit
func Paging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Posts returns a page of posts, newest first
func (s *Service) Posts(ctx context.Context, q PostsQuery) (*Page[PostItem], error) {
	page, limit := Paging(q.Page, q.Limit)
	key := fmt.Sprintf("posts:%d:%d:%s", page, limit, q.EntityID)

	var posts []models.PostWithRelations
	if !s.cached(ctx, key, &posts) {
		var err error
		posts, err = s.store.ListPosts(ctx, (page-1)*limit, limit, q.EntityID)
		if err != nil {
			return nil, err
		}
		s.remember(ctx, key, posts)
	}

	now := s.now()
	items := make([]PostItem, len(posts))
	for i, p := range posts {
		items[i] = PostItem{
			PostWithRelations: p,
			Description:       Describe(p.Entities),
			TimeAgo:           TimeAgo(p.CreatedAt, now),
		}
	}
	return &Page[PostItem]{Items: items, Page: page, Limit: limit}, nil
}

// Activities returns a page of entity mentions, newest first
func (s *Service) Activities(ctx context.Context, page, limit int) (*Page[ActivityItem], error) {
	page, limit = Paging(page, limit)
	key := fmt.Sprintf("activities:%d:%d", page, limit)

	var activities []models.Activity
	if !s.cached(ctx, key, &activities) {
		var err error
		activities, err = s.store.ListActivities(ctx, (page-1)*limit, limit)
		if err != nil {
			return nil, err
		}
		s.remember(ctx, key, activities)
	}

	now := s.now()
	items := make([]ActivityItem, len(activities))
	for i, a := range activities {
		items[i] = ActivityItem{Activity: a, TimeAgo: TimeAgo(a.CreatedAt, now)}
	}
	return &Page[ActivityItem]{Items: items, Page: page, Limit: limit}, nil
}

// Publish invalidates cached pages on every pipeline event
func (s *Service) Publish(ctx context.Context, _ events.Event) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		logger.Warn("feed cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *Service) remember(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		logger.Warn("feed cache write failed", zap.String("key", key), zap.Error(err))
	}
}
