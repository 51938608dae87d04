package redis

import "context"

// JobLock guards a pipeline stage against concurrent runs
// This allows swapping implementations (Redis, PostgreSQL advisory locks, etc.)
type JobLock interface {
	// TryAcquire returns false when another run holds the lock
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
	Job() string
}
