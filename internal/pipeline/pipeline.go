package pipeline

import (
	"context"

	"github.com/selivandex/spectrum-feed/internal/ingest"
	"github.com/selivandex/spectrum-feed/internal/synthesis"
)

// Ingester runs news ingestion
type Ingester interface {
	Run(ctx context.Context) (*ingest.Result, error)
}

// PostStage runs post synthesis
type PostStage interface {
	Run(ctx context.Context) (*synthesis.PostResult, error)
}

// CommentStage runs comment synthesis
type CommentStage interface {
	Run(ctx context.Context) (*synthesis.CommentResult, error)
}

// Pipeline exposes the three stages behind the runner. HTTP, CLI and scheduler all go through it.
type Pipeline struct {
	runner   *Runner
	ingester Ingester
	posts    PostStage
	comments CommentStage
}

// New creates pipeline
func New(runner *Runner, ingester Ingester, posts PostStage, comments CommentStage) *Pipeline {
	return &Pipeline{
		runner:   runner,
		ingester: ingester,
		posts:    posts,
		comments: comments,
	}
}

// Ingest fetches and stores new articles
func (p *Pipeline) Ingest(ctx context.Context, trigger Trigger) (*ingest.Result, error) {
	var result *ingest.Result
	err := p.runner.Run(ctx, JobIngest, trigger, func(ctx context.Context) (int, error) {
		var err error
		result, err = p.ingester.Run(ctx)
		if result == nil {
			return 0, err
		}
		return result.Inserted, err
	})
	return result, err
}

// Posts synthesizes one post from the newest unprocessed article
func (p *Pipeline) Posts(ctx context.Context, trigger Trigger) (*synthesis.PostResult, error) {
	var result *synthesis.PostResult
	err := p.runner.Run(ctx, JobPosts, trigger, func(ctx context.Context) (int, error) {
		var err error
		result, err = p.posts.Run(ctx)
		if result == nil {
			return 0, err
		}
		return 1 + len(result.CommentIDs), err
	})
	return result, err
}

// Comments adds AI comments to uncommented posts
func (p *Pipeline) Comments(ctx context.Context, trigger Trigger) (*synthesis.CommentResult, error) {
	var result *synthesis.CommentResult
	err := p.runner.Run(ctx, JobComments, trigger, func(ctx context.Context) (int, error) {
		var err error
		result, err = p.comments.Run(ctx)
		if result == nil {
			return 0, err
		}
		return result.Comments, err
	})
	return result, err
}
