package feed

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/spectrum-feed/pkg/models"
)

const commentsPerPost = 3

const postColumns = `p.id, p.title, p.content, p.spectrum, p.scope, p.link, p.newspaper_id, p.created_at`

const linkColumns = `pe.id, pe.post_id, pe.entity_id, pe.sentiment, pe.created_at,
	e.id AS "entity.id", e.name AS "entity.name", e.type AS "entity.type", e.created_at AS "entity.created_at"`

// Repository reads the feed from Postgres
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new feed repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListPosts returns posts newest first with their entity links and up to three comments.
// A non-empty entityID keeps only posts linked to that entity.
func (r *Repository) ListPosts(ctx context.Context, offset, limit int, entityID string) ([]models.PostWithRelations, error) {
	var posts []models.Post
	var err error
	if entityID != "" {
		err = r.db.SelectContext(ctx, &posts, `
			SELECT `+postColumns+`
			FROM posts p
			WHERE EXISTS (SELECT 1 FROM post_entities pe WHERE pe.post_id = p.id AND pe.entity_id = $1)
			ORDER BY p.created_at DESC, p.id
			OFFSET $2 LIMIT $3
		`, entityID, offset, limit)
	} else {
		err = r.db.SelectContext(ctx, &posts, `
			SELECT `+postColumns+`
			FROM posts p
			ORDER BY p.created_at DESC, p.id
			OFFSET $1 LIMIT $2
		`, offset, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	out := make([]models.PostWithRelations, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	links, err := r.linksByPost(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := r.commentsByPost(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i, p := range posts {
		out[i] = models.PostWithRelations{
			Post:     p,
			Entities: links[p.ID],
			Comments: comments[p.ID],
		}
		if out[i].Entities == nil {
			out[i].Entities = []models.EntityLink{}
		}
		if out[i].Comments == nil {
			out[i].Comments = []models.CommentView{}
		}
	}
	return out, nil
}

// ListActivities returns entity mentions newest first
func (r *Repository) ListActivities(ctx context.Context, offset, limit int) ([]models.Activity, error) {
	activities := []models.Activity{}
	err := r.db.SelectContext(ctx, &activities, `
		SELECT `+linkColumns+`
		FROM post_entities pe
		JOIN entities e ON e.id = pe.entity_id
		ORDER BY pe.created_at DESC, pe.id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

func (r *Repository) linksByPost(ctx context.Context, postIDs []string) (map[string][]models.EntityLink, error) {
	query, args, err := sqlx.In(`
		SELECT `+linkColumns+`
		FROM post_entities pe
		JOIN entities e ON e.id = pe.entity_id
		WHERE pe.post_id IN (?)
		ORDER BY pe.created_at, pe.id
	`, postIDs)
	if err != nil {
		return nil, err
	}

	var links []models.EntityLink
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load post entities: %w", err)
	}

	byPost := make(map[string][]models.EntityLink, len(postIDs))
	for _, link := range links {
		byPost[link.PostID] = append(byPost[link.PostID], link)
	}
	return byPost, nil
}

// commentsByPost loads the first comments of each post, then the entities they reference
func (r *Repository) commentsByPost(ctx context.Context, postIDs []string) (map[string][]models.CommentView, error) {
	query, args, err := sqlx.In(`
		SELECT id, post_id, content, ai, commentator, entity_id, created_at
		FROM (
			SELECT c.*, ROW_NUMBER() OVER (PARTITION BY c.post_id ORDER BY c.created_at, c.id) AS rn
			FROM comments c
			WHERE c.post_id IN (?)
		) ranked
		WHERE rn <= ?
		ORDER BY created_at, id
	`, postIDs, commentsPerPost)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	entities, err := r.commentEntities(ctx, comments)
	if err != nil {
		return nil, err
	}

	byPost := make(map[string][]models.CommentView, len(postIDs))
	for _, c := range comments {
		view := models.CommentView{Comment: c}
		if c.EntityID != nil {
			if e, ok := entities[*c.EntityID]; ok {
				view.Entity = &e
			}
		}
		byPost[c.PostID] = append(byPost[c.PostID], view)
	}
	return byPost, nil
}

func (r *Repository) commentEntities(ctx context.Context, comments []models.Comment) (map[string]models.Entity, error) {
	var ids []string
	for _, c := range comments {
		if c.EntityID != nil {
			ids = append(ids, *c.EntityID)
		}
	}

	byID := make(map[string]models.Entity, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, type, created_at FROM entities WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var entities []models.Entity
	if err := r.db.SelectContext(ctx, &entities, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load comment entities: %w", err)
	}
	for _, e := range entities {
		byID[e.ID] = e
	}
	return byID, nil
}
