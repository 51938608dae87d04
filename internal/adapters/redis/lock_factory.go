package redis

import (
	"context"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
)

// LockFactory creates job locks
type LockFactory interface {
	CreateJobLock(job string) JobLock
}

// RedisLockFactory creates Redis-based distributed locks
type RedisLockFactory struct {
	lockManager *redlock.RedLock
	ttl         time.Duration
}

// NewRedisLockFactory creates new Redis lock factory
func NewRedisLockFactory(lockManager *redlock.RedLock, ttl time.Duration) *RedisLockFactory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLockFactory{lockManager: lockManager, ttl: ttl}
}

// CreateJobLock creates a distributed lock for a job
func (f *RedisLockFactory) CreateJobLock(job string) JobLock {
	return NewDistributedLock(f.lockManager, job, f.ttl)
}

// NoopLockFactory hands out locks that always succeed. Used when Redis is disabled.
type NoopLockFactory struct{}

// NewNoopLockFactory creates a lock factory without coordination
func NewNoopLockFactory() *NoopLockFactory {
	return &NoopLockFactory{}
}

// CreateJobLock creates a no-op lock
func (f *NoopLockFactory) CreateJobLock(job string) JobLock {
	return &NoopLock{job: job}
}

// NoopLock is a lock that is always free
type NoopLock struct {
	job string
}

func (l *NoopLock) TryAcquire(ctx context.Context) (bool, error) {
	return true, nil
}

func (l *NoopLock) Release(ctx context.Context) error {
	return nil
}

func (l *NoopLock) Job() string {
	return l.job
}
