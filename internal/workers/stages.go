package workers

import (
	"context"
	"errors"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/internal/ingest"
	"github.com/selivandex/spectrum-feed/internal/pipeline"
	"github.com/selivandex/spectrum-feed/internal/synthesis"
	"github.com/selivandex/spectrum-feed/pkg/worker"
)

// Stages is the part of the pipeline the scheduler drives
type Stages interface {
	Ingest(ctx context.Context, trigger pipeline.Trigger) (*ingest.Result, error)
	Posts(ctx context.Context, trigger pipeline.Trigger) (*synthesis.PostResult, error)
	Comments(ctx context.Context, trigger pipeline.Trigger) (*synthesis.CommentResult, error)
}

// StageWorker runs one pipeline stage per tick
type StageWorker struct {
	job pipeline.Job
	run func(ctx context.Context) error
}

func (w *StageWorker) Name() string {
	return string(w.job) + "_worker"
}

// Run treats "nothing to do" and "already running elsewhere" as a quiet tick
func (w *StageWorker) Run(ctx context.Context) error {
	err := w.run(ctx)
	if err == nil || pipeline.IsEmpty(err) || errors.Is(err, pipeline.ErrJobBusy) {
		return nil
	}
	return err
}

// NewIngestWorker creates the scheduled ingestion worker
func NewIngestWorker(stages Stages) *StageWorker {
	return &StageWorker{job: pipeline.JobIngest, run: func(ctx context.Context) error {
		_, err := stages.Ingest(ctx, pipeline.TriggerScheduler)
		return err
	}}
}

// NewPostWorker creates the scheduled post synthesis worker
func NewPostWorker(stages Stages) *StageWorker {
	return &StageWorker{job: pipeline.JobPosts, run: func(ctx context.Context) error {
		_, err := stages.Posts(ctx, pipeline.TriggerScheduler)
		return err
	}}
}

// NewCommentWorker creates the scheduled comment synthesis worker
func NewCommentWorker(stages Stages) *StageWorker {
	return &StageWorker{job: pipeline.JobComments, run: func(ctx context.Context) error {
		_, err := stages.Comments(ctx, pipeline.TriggerScheduler)
		return err
	}}
}

// NewScheduler registers the three stage workers with their configured intervals
func NewScheduler(ctx context.Context, stages Stages, cfg config.SchedulerConfig) *worker.Group {
	group := worker.NewGroup(ctx)
	group.Add(NewIngestWorker(stages), cfg.IngestInterval)
	group.Add(NewPostWorker(stages), cfg.PostInterval)
	group.Add(NewCommentWorker(stages), cfg.CommentInterval)
	return group
}
