package synthesis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/ai"
	"github.com/selivandex/spectrum-feed/internal/events"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/models"
	"github.com/selivandex/spectrum-feed/pkg/templates"
)

type commentSystemPrompt struct {
	Ideologies []string
}

type commentUserPrompt struct {
	Title     string
	Content   string
	EntityIDs []string
}

// commenter writes ideology comments for one post. Shared by both synthesizers.
type commenter struct {
	store     Store
	provider  ai.Provider
	prompts   templates.Renderer
	publisher events.Publisher
}

func (c *commenter) generate(ctx context.Context, post *models.PostWithRelations, temperature float32) ([]models.Comment, error) {
	system, err := c.prompts.ExecuteTemplate(templates.CommentSystem, commentSystemPrompt{
		Ideologies: models.IdeologyStrings(models.Ideologies),
	})
	if err != nil {
		return nil, err
	}

	user, err := c.prompts.ExecuteTemplate(templates.CommentUser, commentUserPrompt{
		Title:     post.Title,
		Content:   post.Content,
		EntityIDs: post.EntityIDs(),
	})
	if err != nil {
		return nil, err
	}

	var batch CommentBatch
	if _, err := ai.GenerateInto(ctx, c.provider, &ai.Request{
		Name:        "comments",
		System:      system,
		User:        user,
		Schema:      commentSchema(),
		Temperature: temperature,
	}, &batch); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(batch.Comments))
	for _, out := range batch.Comments {
		commentator := out.Ideology
		comment := models.Comment{
			PostID:      post.ID,
			Content:     out.Content,
			AI:          true,
			Commentator: &commentator,
		}
		if err := c.store.CreateComment(ctx, &comment); err != nil {
			return comments, err
		}
		comments = append(comments, comment)
	}

	_ = c.publisher.Publish(ctx, events.Event{
		Type:     events.CommentsCreated,
		Post:     post,
		Comments: comments,
		Count:    len(comments),
	})

	return comments, nil
}

// CommentResult summarizes one comment synthesis run
type CommentResult struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
	Failed   int `json:"failed"`
}

// CommentSynthesizer adds AI comments to posts that have none
type CommentSynthesizer struct {
	commenter
	temperature float32
}

// NewCommentSynthesizer creates comment synthesizer
func NewCommentSynthesizer(store Store, provider ai.Provider, prompts templates.Renderer, publisher events.Publisher, temperature float32) *CommentSynthesizer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CommentSynthesizer{
		commenter: commenter{
			store:     store,
			provider:  provider,
			prompts:   prompts,
			publisher: publisher,
		},
		temperature: temperature,
	}
}

// Run comments on up to three of the newest uncommented posts.
// A failing post is logged and skipped.
func (s *CommentSynthesizer) Run(ctx context.Context) (*CommentResult, error) {
	posts, err := s.store.PostsWithoutComments(ctx, maxPostsPerRun)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: no posts without comments", ErrNotFound)
	}

	result := &CommentResult{Posts: len(posts)}
	for i := range posts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		post := &posts[i]
		comments, err := s.generate(ctx, post, s.temperature)
		result.Comments += len(comments)
		if err != nil {
			result.Failed++
			logger.Warn("comment generation failed",
				zap.String("post_id", post.ID),
				zap.Error(err),
			)
			continue
		}

		logger.Info("comments created",
			zap.String("post_id", post.ID),
			zap.Int("count", len(comments)),
		)
	}

	return result, nil
}
