package synthesis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/selivandex/spectrum-feed/pkg/models"
)

const entityLinkSelect = `
	SELECT pe.id, pe.post_id, pe.entity_id, pe.sentiment, pe.created_at,
	       e.id AS "entity.id", e.name AS "entity.name", e.type AS "entity.type", e.created_at AS "entity.created_at"
	FROM post_entities pe
	JOIN entities e ON e.id = pe.entity_id`

// Repository persists posts, entities, entity links and comments
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new synthesis repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

// CreatePost inserts a post, assigning ID and timestamp when unset
func (r *Repository) CreatePost(ctx context.Context, post *models.Post) error {
	stamp(&post.ID, &post.CreatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO posts (id, title, content, spectrum, scope, link, newspaper_id, created_at)
		VALUES (:id, :title, :content, :spectrum, :scope, :link, :newspaper_id, :created_at)
	`, post)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// FindEntityContaining returns the oldest entity whose name contains name (case-sensitive)
func (r *Repository) FindEntityContaining(ctx context.Context, name string) (*models.Entity, error) {
	var entity models.Entity
	err := r.db.GetContext(ctx, &entity, `
		SELECT id, name, type, created_at
		FROM entities
		WHERE strpos(name, $1) > 0
		ORDER BY created_at, id
		LIMIT 1
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entity: %w", err)
	}
	return &entity, nil
}

// CreateEntity inserts an entity
func (r *Repository) CreateEntity(ctx context.Context, entity *models.Entity) error {
	stamp(&entity.ID, &entity.CreatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO entities (id, name, type, created_at)
		VALUES (:id, :name, :type, :created_at)
	`, entity)
	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}
	return nil
}

// CreatePostEntity links a post to an entity
func (r *Repository) CreatePostEntity(ctx context.Context, link *models.PostEntity) error {
	stamp(&link.ID, &link.CreatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO post_entities (id, post_id, entity_id, sentiment, created_at)
		VALUES (:id, :post_id, :entity_id, :sentiment, :created_at)
	`, link)
	if err != nil {
		return fmt.Errorf("failed to create post entity: %w", err)
	}
	return nil
}

// CreateComment inserts a comment
func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	stamp(&comment.ID, &comment.CreatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO comments (id, post_id, content, ai, commentator, entity_id, created_at)
		VALUES (:id, :post_id, :content, :ai, :commentator, :entity_id, :created_at)
	`, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetPostWithEntities loads a post and its entity links
func (r *Repository) GetPostWithEntities(ctx context.Context, postID string) (*models.PostWithRelations, error) {
	var post models.PostWithRelations
	err := r.db.GetContext(ctx, &post.Post, `
		SELECT id, title, content, spectrum, scope, link, newspaper_id, created_at
		FROM posts WHERE id = $1
	`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	links, err := r.entityLinks(ctx, []string{postID})
	if err != nil {
		return nil, err
	}
	post.Entities = links[postID]

	return &post, nil
}

// PostsWithoutComments returns up to limit posts with no comments, newest first
func (r *Repository) PostsWithoutComments(ctx context.Context, limit int) ([]models.PostWithRelations, error) {
	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, `
		SELECT p.id, p.title, p.content, p.spectrum, p.scope, p.link, p.newspaper_id, p.created_at
		FROM posts p
		WHERE NOT EXISTS (SELECT 1 FROM comments c WHERE c.post_id = p.id)
		ORDER BY p.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts without comments: %w", err)
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	links, err := r.entityLinks(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PostWithRelations, len(posts))
	for i, p := range posts {
		out[i] = models.PostWithRelations{Post: p, Entities: links[p.ID]}
	}
	return out, nil
}

func (r *Repository) entityLinks(ctx context.Context, postIDs []string) (map[string][]models.EntityLink, error) {
	byPost := make(map[string][]models.EntityLink, len(postIDs))
	if len(postIDs) == 0 {
		return byPost, nil
	}

	query, args, err := sqlx.In(entityLinkSelect+` WHERE pe.post_id IN (?) ORDER BY pe.created_at, pe.id`, postIDs)
	if err != nil {
		return nil, err
	}

	var links []models.EntityLink
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load entity links: %w", err)
	}

	for _, link := range links {
		byPost[link.PostID] = append(byPost[link.PostID], link)
	}
	return byPost, nil
}
