package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/pkg/logger"
)

// Client wraps RedLock manager for job locks + standard Redis for caching
type Client struct {
	lockManager *redlock.RedLock
	cache       *redis.Client
	lockTTL     time.Duration
}

// New creates new Redis client with RedLock support + caching
func New(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	lockAddrs := make([]string, 0, len(cfg.Addrs))
	for _, addr := range cfg.Addrs {
		if !strings.Contains(addr, "://") {
			addr = "tcp://" + addr
		}
		lockAddrs = append(lockAddrs, addr)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	lockManager, err := redlock.NewRedLock(ctx, lockAddrs)
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	logger.Info("redis redlock manager initialized", zap.Strings("addresses", lockAddrs))

	// the first address doubles as the cache node
	cacheClient := redis.NewClient(&redis.Options{
		Addr:         strings.TrimPrefix(lockAddrs[0], "tcp://"),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := cacheClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	return &Client{
		lockManager: lockManager,
		cache:       cacheClient,
		lockTTL:     cfg.LockTTL,
	}, nil
}

// GetLockFactory returns a lock factory for pipeline jobs
func (c *Client) GetLockFactory() LockFactory {
	return NewRedisLockFactory(c.lockManager, c.lockTTL)
}

// Cache returns the go-redis client used for feed pages
func (c *Client) Cache() *redis.Client {
	return c.cache
}

// Close closes redis connections
func (c *Client) Close() error {
	if c.cache != nil {
		logger.Info("closing redis cache client")
		if err := c.cache.Close(); err != nil {
			return fmt.Errorf("failed to close redis cache: %w", err)
		}
	}
	return nil
}

// Name identifies the dependency in health reports
func (c *Client) Name() string {
	return "redis"
}

// Check acquires and releases a short test lock
func (c *Client) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	const testLock = "health:check"
	expiry, err := c.lockManager.Lock(ctx, testLock, time.Second)
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	if expiry <= 0 {
		return fmt.Errorf("redis health check failed: invalid expiry")
	}

	_ = c.lockManager.UnLock(ctx, testLock)

	return nil
}
