package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
)

const generationKey = "feed:generation"

// FeedCache stores rendered feed pages.
// Keys embed a generation counter so one INCR invalidates every page.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a feed cache on top of go-redis
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	return &FeedCache{client: client, ttl: ttl}
}

func (c *FeedCache) key(ctx context.Context, name string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("feed:%d:%s", gen, name), nil
}

// Get decodes a cached page into dst. Returns false on miss.
func (c *FeedCache) Get(ctx context.Context, name string, dst any) (bool, error) {
	key, err := c.key(ctx, name)
	if err != nil {
		return false, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", name, err)
	}
	return true, nil
}

// Set stores a page under the current generation
func (c *FeedCache) Set(ctx context.Context, name string, value any) error {
	key, err := c.key(ctx, name)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate bumps the generation; old pages expire by TTL
func (c *FeedCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		return err
	}
	logger.Debug("feed cache invalidated", zap.Int64("generation", gen))
	return nil
}
