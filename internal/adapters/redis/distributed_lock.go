package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
)

// DistributedLock wraps redlock-go for one pipeline job
type DistributedLock struct {
	lockManager *redlock.RedLock
	job         string
	lockName    string
	ttl         time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewDistributedLock creates a job lock using the Redlock algorithm
func NewDistributedLock(lockManager *redlock.RedLock, job string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		lockManager: lockManager,
		job:         job,
		lockName:    fmt.Sprintf("pipeline:lock:%s", job),
		ttl:         ttl,
	}
}

// TryAcquire attempts to take the job lock.
// Returns false without error when another process holds it.
func (dl *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
	if err != nil {
		logger.Debug("job lock already held",
			zap.String("job", dl.job),
			zap.String("lock_name", dl.lockName),
		)
		return false, nil
	}

	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	dl.mu.Lock()
	dl.stopCh = make(chan struct{})
	stopCh := dl.stopCh
	dl.mu.Unlock()

	logger.Debug("job lock acquired",
		zap.String("job", dl.job),
		zap.Duration("expiry", expiry),
	)

	go dl.renewLock(ctx, stopCh)

	return true, nil
}

// Release releases the lock and stops renewal
func (dl *DistributedLock) Release(ctx context.Context) error {
	dl.mu.Lock()
	if dl.stopCh == nil {
		dl.mu.Unlock()
		return nil
	}
	close(dl.stopCh)
	dl.stopCh = nil
	dl.mu.Unlock()

	if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
		// lock may have expired on its own
		logger.Warn("failed to release job lock",
			zap.String("job", dl.job),
			zap.Error(err),
		)
	}

	return nil
}

// Job returns the job this lock guards
func (dl *DistributedLock) Job() string {
	return dl.job
}

// renewLock extends the lock at 2/3 of its TTL while the run is alive
func (dl *DistributedLock) renewLock(ctx context.Context, stopCh <-chan struct{}) {
	ticker := time.NewTicker((dl.ttl * 2) / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			// redlock-go has no extend, so release and re-acquire
			if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
				logger.Error("job lock renewal failed", zap.String("job", dl.job), zap.Error(err))
				return
			}
			if expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl); err != nil || expiry <= 0 {
				logger.Error("job lock lost during renewal",
					zap.String("job", dl.job),
					zap.Error(err),
				)
				return
			}
		}
	}
}
