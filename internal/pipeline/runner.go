// Package pipeline runs the ingestion, post and comment stages under a job lock and records each run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/redis"
	"github.com/selivandex/spectrum-feed/internal/ingest"
	"github.com/selivandex/spectrum-feed/internal/synthesis"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/metrics"
)

// ErrJobBusy is returned when another run of the same stage holds the job lock
var ErrJobBusy = errors.New("job is already running")

// Job names a pipeline stage
type Job string

const (
	JobIngest   Job = "ingest"
	JobPosts    Job = "posts"
	JobComments Job = "comments"
)

// Trigger tells what started a run
type Trigger string

const (
	TriggerHTTP      Trigger = "http"
	TriggerCLI       Trigger = "cli"
	TriggerScheduler Trigger = "scheduler"
)

// StageFunc runs one stage and reports how many records it created
type StageFunc func(ctx context.Context) (int, error)

// Runner wraps stage runs with locking, metrics and logging
type Runner struct {
	locks   redis.LockFactory
	metrics metrics.Buffer
	now     func() time.Time
}

// NewRunner creates stage runner. Nil arguments fall back to no-op implementations.
func NewRunner(locks redis.LockFactory, buffer metrics.Buffer) *Runner {
	if locks == nil {
		locks = redis.NewNoopLockFactory()
	}
	if buffer == nil {
		buffer = metrics.Nop{}
	}
	return &Runner{locks: locks, metrics: buffer, now: time.Now}
}

// Outcome classifies a stage result for metrics and logs
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrJobBusy):
		return metrics.OutcomeBusy
	case IsEmpty(err):
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeError
	}
}

// IsEmpty reports whether err only means there was nothing to do
func IsEmpty(err error) bool {
	return errors.Is(err, synthesis.ErrNotFound) || errors.Is(err, ingest.ErrNoArticles)
}

// Run executes fn while holding the job lock
func (r *Runner) Run(ctx context.Context, job Job, trigger Trigger, fn StageFunc) error {
	start := r.now()

	lock := r.locks.CreateJobLock(string(job))
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		err = fmt.Errorf("failed to acquire %s lock: %w", job, err)
		r.record(job, trigger, start, 0, err)
		return err
	}
	if !acquired {
		r.record(job, trigger, start, 0, ErrJobBusy)
		return ErrJobBusy
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to release job lock", zap.String("job", string(job)), zap.Error(err))
		}
	}()

	created, err := fn(ctx)
	r.record(job, trigger, start, created, err)
	return err
}

func (r *Runner) record(job Job, trigger Trigger, start time.Time, created int, err error) {
	elapsed := r.now().Sub(start)
	outcome := Outcome(err)

	m := &metrics.PipelineRunMetric{
		Timestamp:  start.UTC(),
		Job:        string(job),
		Trigger:    string(trigger),
		Outcome:    outcome,
		Created:    created,
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		m.Error = err.Error()
	}
	if addErr := r.metrics.Add(m); addErr != nil {
		logger.Warn("failed to buffer run metric", zap.Error(addErr))
	}

	fields := []zap.Field{
		zap.String("job", string(job)),
		zap.String("trigger", string(trigger)),
		zap.String("outcome", outcome),
		zap.Int("created", created),
		zap.Duration("duration", elapsed),
	}
	switch outcome {
	case metrics.OutcomeOK, metrics.OutcomeEmpty:
		if err != nil {
			fields = append(fields, zap.String("reason", err.Error()))
		}
		logger.Info("pipeline run finished", fields...)
	case metrics.OutcomeBusy:
		logger.Info("pipeline run skipped", fields...)
	default:
		logger.Error("pipeline run failed", append(fields, zap.Error(err))...)
	}
}
