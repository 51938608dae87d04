package news

import (
	"context"
	"time"

	"github.com/selivandex/spectrum-feed/pkg/models"
)

// Query selects the articles to fetch
type Query struct {
	Topic string
	// From is the earliest publication day; sources only honour the date part
	From time.Time
}

// Provider represents news source provider interface
type Provider interface {
	// GetName returns provider name
	GetName() string

	// FetchArticles returns the articles as received. Records that could not be
	// decoded are returned empty so callers count them as invalid.
	FetchArticles(ctx context.Context, q Query) ([]models.RawArticle, error)
}
