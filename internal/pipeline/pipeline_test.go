package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/selivandex/spectrum-feed/internal/adapters/redis"
	"github.com/selivandex/spectrum-feed/internal/ingest"
	"github.com/selivandex/spectrum-feed/internal/synthesis"
	"github.com/selivandex/spectrum-feed/pkg/metrics"
)

type memBuffer struct {
	mu   sync.Mutex
	runs []*metrics.PipelineRunMetric
}

func (b *memBuffer) Add(m metrics.Metric) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runs = append(b.runs, m.(*metrics.PipelineRunMetric))
	return nil
}

func (b *memBuffer) Flush(context.Context) error { return nil }
func (b *memBuffer) Size() int                   { return len(b.runs) }
func (b *memBuffer) Close(context.Context) error { return nil }

type heldLock struct {
	job      string
	held     bool
	released bool
}

func (l *heldLock) TryAcquire(context.Context) (bool, error) { return !l.held, nil }
func (l *heldLock) Job() string                              { return l.job }

func (l *heldLock) Release(context.Context) error {
	l.released = true
	return nil
}

type lockFactory struct {
	held  bool
	locks []*heldLock
}

func (f *lockFactory) CreateJobLock(job string) redis.JobLock {
	l := &heldLock{job: job, held: f.held}
	f.locks = append(f.locks, l)
	return l
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.OutcomeOK},
		{ErrJobBusy, metrics.OutcomeBusy},
		{fmt.Errorf("%w: nothing", synthesis.ErrNotFound), metrics.OutcomeEmpty},
		{ingest.ErrNoArticles, metrics.OutcomeEmpty},
		{synthesis.ErrModelFailure, metrics.OutcomeError},
		{ingest.ErrUpstream, metrics.OutcomeError},
	}

	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestRunnerRecordsRunAndReleasesLock(t *testing.T) {
	locks := &lockFactory{}
	buffer := &memBuffer{}
	r := NewRunner(locks, buffer)

	err := r.Run(context.Background(), JobComments, TriggerCLI, func(context.Context) (int, error) {
		return 3, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !locks.locks[0].released || locks.locks[0].job != "comments" {
		t.Errorf("lock = %+v", locks.locks[0])
	}
	run := buffer.runs[0]
	if run.Job != "comments" || run.Trigger != "cli" || run.Outcome != metrics.OutcomeOK || run.Created != 3 {
		t.Errorf("metric = %+v", run)
	}
}

func TestRunnerBusy(t *testing.T) {
	buffer := &memBuffer{}
	r := NewRunner(&lockFactory{held: true}, buffer)

	called := false
	err := r.Run(context.Background(), JobPosts, TriggerHTTP, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, ErrJobBusy) {
		t.Fatalf("Run() error = %v, want ErrJobBusy", err)
	}
	if called {
		t.Error("stage ran while lock was held")
	}
	if buffer.runs[0].Outcome != metrics.OutcomeBusy {
		t.Errorf("outcome = %s", buffer.runs[0].Outcome)
	}
}

type ingestFunc func(ctx context.Context) (*ingest.Result, error)

func (f ingestFunc) Run(ctx context.Context) (*ingest.Result, error) { return f(ctx) }

type postFunc func(ctx context.Context) (*synthesis.PostResult, error)

func (f postFunc) Run(ctx context.Context) (*synthesis.PostResult, error) { return f(ctx) }

func TestPipelinePassesResultsAndErrors(t *testing.T) {
	buffer := &memBuffer{}
	p := New(NewRunner(nil, buffer),
		ingestFunc(func(context.Context) (*ingest.Result, error) {
			return &ingest.Result{Fetched: 4, Inserted: 2}, nil
		}),
		postFunc(func(context.Context) (*synthesis.PostResult, error) {
			return &synthesis.PostResult{PostID: "p1"}, synthesis.ErrCommentModelFailure
		}),
		nil,
	)

	res, err := p.Ingest(context.Background(), TriggerScheduler)
	if err != nil || res.Inserted != 2 {
		t.Fatalf("Ingest() = %+v, %v", res, err)
	}

	post, err := p.Posts(context.Background(), TriggerHTTP)
	if !errors.Is(err, synthesis.ErrCommentModelFailure) || post.PostID != "p1" {
		t.Fatalf("Posts() = %+v, %v", post, err)
	}

	if buffer.runs[0].Created != 2 || buffer.runs[1].Created != 1 || buffer.runs[1].Outcome != metrics.OutcomeError {
		t.Errorf("runs = %+v, %+v", buffer.runs[0], buffer.runs[1])
	}
}
