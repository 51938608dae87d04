package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/selivandex/spectrum-feed/pkg/models"
)

const newspaperColumns = `id, title, description, author, url, url_to_image, published_at, content, source, created_at`

// Repository handles database operations for newspapers
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new newspaper repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// LatestPublishedAt returns the newest publication time stored, nil when empty
func (r *Repository) LatestPublishedAt(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, `SELECT MAX(published_at) FROM newspapers`); err != nil {
		return nil, fmt.Errorf("failed to query latest newspaper: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// Exists reports whether a newspaper with the same title, author and publication time is stored
func (r *Repository) Exists(ctx context.Context, title, author string, publishedAt time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM newspapers
			WHERE title = $1 AND author = $2 AND published_at = $3
		)
	`, title, author, publishedAt)
	if err != nil {
		return false, fmt.Errorf("failed to check newspaper: %w", err)
	}
	return exists, nil
}

// InsertMany inserts all newspapers in one statement, skipping duplicate keys.
// Returns the number of rows actually written.
func (r *Repository) InsertMany(ctx context.Context, papers []*models.Newspaper) (int, error) {
	if len(papers) == 0 {
		return 0, nil
	}

	const columnCount = 10
	placeholders := make([]string, 0, len(papers))
	args := make([]any, 0, len(papers)*columnCount)
	now := time.Now().UTC()

	for i, p := range papers {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}

		base := i * columnCount
		marks := make([]string, columnCount)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

		args = append(args,
			p.ID, p.Title, p.Description, p.Author, p.URL,
			p.URLToImage, p.PublishedAt, p.Content, p.Source, p.CreatedAt,
		)
	}

	query := fmt.Sprintf(`INSERT INTO newspapers (%s) VALUES %s ON CONFLICT DO NOTHING`,
		newspaperColumns, strings.Join(placeholders, ", "))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert newspapers: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count inserted newspapers: %w", err)
	}

	return int(inserted), nil
}

// LatestWithoutPost returns the most recently published newspaper that has no post.
// Returns nil when every newspaper has been processed.
func (r *Repository) LatestWithoutPost(ctx context.Context) (*models.Newspaper, error) {
	var paper models.Newspaper
	err := r.db.GetContext(ctx, &paper, `
		SELECT `+newspaperColumns+`
		FROM newspapers n
		WHERE NOT EXISTS (SELECT 1 FROM posts p WHERE p.newspaper_id = n.id)
		ORDER BY n.published_at DESC
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed newspaper: %w", err)
	}
	return &paper, nil
}
