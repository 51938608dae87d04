package synthesis

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/ai"
	"github.com/selivandex/spectrum-feed/internal/events"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/models"
	"github.com/selivandex/spectrum-feed/pkg/templates"
)

const unknownLink = "unknown"

// NewspaperSource yields the next newspaper to turn into a post
type NewspaperSource interface {
	LatestWithoutPost(ctx context.Context) (*models.Newspaper, error)
}

// Store persists synthesized records
type Store interface {
	CreatePost(ctx context.Context, post *models.Post) error
	FindEntityContaining(ctx context.Context, name string) (*models.Entity, error)
	CreateEntity(ctx context.Context, entity *models.Entity) error
	CreatePostEntity(ctx context.Context, link *models.PostEntity) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetPostWithEntities(ctx context.Context, postID string) (*models.PostWithRelations, error)
	PostsWithoutComments(ctx context.Context, limit int) ([]models.PostWithRelations, error)
}

// PageReader extracts readable text from an article page
type PageReader interface {
	Text(ctx context.Context, url string) (string, error)
}

// Config controls post synthesis
type Config struct {
	RequireEntities   bool
	InlineComments    bool
	PageText          bool
	PostTemperature   float32
	InlineTemperature float32
}

// PostResult is returned by a successful post synthesis
type PostResult struct {
	// Raw is the model output re-encoded as indented JSON
	Raw        string   `json:"-"`
	PostID     string   `json:"post_id"`
	EntityIDs  []string `json:"entity_ids"`
	CommentIDs []string `json:"comment_ids,omitempty"`
}

type postSystemPrompt struct {
	Spectrums []string
}

type postUserPrompt struct {
	URL         string
	Title       string
	Description string
	PageText    string
}

// PostSynthesizer turns the newest unprocessed newspaper into a post
type PostSynthesizer struct {
	commenter
	newspapers NewspaperSource
	reader     PageReader
	cfg        Config
}

// NewPostSynthesizer creates post synthesizer. reader may be nil.
func NewPostSynthesizer(newspapers NewspaperSource, store Store, provider ai.Provider, prompts templates.Renderer, reader PageReader, publisher events.Publisher, cfg Config) *PostSynthesizer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PostSynthesizer{
		commenter: commenter{
			store:     store,
			provider:  provider,
			prompts:   prompts,
			publisher: publisher,
		},
		newspapers: newspapers,
		reader:     reader,
		cfg:        cfg,
	}
}

// Run synthesizes one post. Records created before a failure are kept.
func (s *PostSynthesizer) Run(ctx context.Context) (*PostResult, error) {
	// Newest article that has no post yet
	paper, err := s.newspapers.LatestWithoutPost(ctx)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, fmt.Errorf("%w: no unprocessed newspaper", ErrNotFound)
	}

	system, user, err := s.postPrompts(ctx, paper)
	if err != nil {
		return nil, err
	}

	// Ask the model for the post, decoded and validated against the schema
	var out PostOutput
	if _, err := ai.GenerateInto(ctx, s.provider, &ai.Request{
		Name:        "post",
		System:      system,
		User:        user,
		Schema:      postSchema(),
		Temperature: s.cfg.PostTemperature,
	}, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelFailure, err)
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelFailure, err)
	}

	// Scope and the strict check only count entities with a name
	entities, dropped := usableEntities(out.Entities)
	if dropped > 0 {
		logger.Warn("dropped blank entity names", zap.String("newspaper_id", paper.ID), zap.Int("count", dropped))
	}
	if len(entities) == 0 && s.cfg.RequireEntities {
		return nil, ErrNoEntities
	}

	post := &models.Post{
		Title:       out.Title,
		Content:     out.Content,
		Spectrum:    models.Ideology(out.Spectrum),
		Scope:       models.ScopeFor(len(entities)),
		Link:        cmp.Or(paper.URL, unknownLink),
		NewspaperID: &paper.ID,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	result := &PostResult{
		Raw:       string(raw),
		PostID:    post.ID,
		EntityIDs: make([]string, 0, len(entities)),
	}

	// Resolve or create each entity, then link it with its sentiment
	full := &models.PostWithRelations{Post: *post}
	for _, e := range entities {
		link, err := s.linkEntity(ctx, post.ID, e)
		if err != nil {
			return result, err
		}
		full.Entities = append(full.Entities, *link)
		result.EntityIDs = append(result.EntityIDs, link.EntityID)
	}

	logger.Info("post created",
		zap.String("post_id", post.ID),
		zap.String("newspaper_id", paper.ID),
		zap.String("spectrum", string(post.Spectrum)),
		zap.Int("entities", len(full.Entities)),
	)

	_ = s.publisher.Publish(ctx, events.Event{Type: events.PostCreated, Post: full, Count: 1})

	if !s.cfg.InlineComments {
		return result, nil
	}

	// Comment on the stored post so the prompt sees persisted entity IDs
	reloaded, err := s.store.GetPostWithEntities(ctx, post.ID)
	if err != nil {
		return result, err
	}
	if reloaded == nil {
		reloaded = full
	}

	comments, err := s.generate(ctx, reloaded, s.cfg.InlineTemperature)
	for _, c := range comments {
		result.CommentIDs = append(result.CommentIDs, c.ID)
	}
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrCommentModelFailure, err)
	}

	return result, nil
}

func (s *PostSynthesizer) postPrompts(ctx context.Context, paper *models.Newspaper) (string, string, error) {
	system, err := s.prompts.ExecuteTemplate(templates.PostSystem, postSystemPrompt{
		Spectrums: models.IdeologyStrings(models.Spectrums),
	})
	if err != nil {
		return "", "", err
	}

	data := postUserPrompt{
		URL:         paper.URL,
		Title:       paper.Title,
		Description: paper.Description,
	}
	if s.cfg.PageText && s.reader != nil && paper.URL != "" {
		text, err := s.reader.Text(ctx, paper.URL)
		if err != nil {
			logger.Warn("page text unavailable", zap.String("url", paper.URL), zap.Error(err))
		}
		data.PageText = text
	}

	user, err := s.prompts.ExecuteTemplate(templates.PostUser, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

// linkEntity resolves or creates the entity and links it to the post
func (s *PostSynthesizer) linkEntity(ctx context.Context, postID string, e EntityOutput) (*models.EntityLink, error) {
	entity, err := s.store.FindEntityContaining(ctx, e.Name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		entity = &models.Entity{Name: e.Name, Type: models.ParseEntityType(e.Type)}
		if err := s.store.CreateEntity(ctx, entity); err != nil {
			return nil, err
		}
	}

	link := &models.EntityLink{
		PostEntity: models.PostEntity{
			PostID:    postID,
			EntityID:  entity.ID,
			Sentiment: models.ParseSentiment(e.Sentiment),
		},
		Entity: *entity,
	}
	if err := s.store.CreatePostEntity(ctx, &link.PostEntity); err != nil {
		return nil, err
	}
	return link, nil
}
