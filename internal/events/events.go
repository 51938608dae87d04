// Package events carries pipeline notifications to Kafka, Telegram, the live feed and the cache.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/models"
)

// Type names a pipeline event
type Type string

const (
	NewspapersIngested Type = "newspapers.ingested"
	PostCreated        Type = "post.created"
	CommentsCreated    Type = "comments.created"
)

// Event is emitted after a pipeline stage persisted something
type Event struct {
	At       time.Time                 `json:"at"`
	Post     *models.PostWithRelations `json:"post,omitempty"`
	Type     Type                      `json:"type"`
	Comments []models.Comment          `json:"comments,omitempty"`
	Count    int                       `json:"count"`
}

// Publisher delivers events to one destination
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(ctx context.Context, evt Event) error

func (f PublisherFunc) Publish(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Fanout delivers every event to all publishers. Failures are logged, never returned.
type Fanout struct {
	publishers []Publisher
}

// NewFanout creates a fanout over publishers
func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

// Add registers another publisher
func (f *Fanout) Add(p Publisher) {
	f.publishers = append(f.publishers, p)
}

func (f *Fanout) Publish(ctx context.Context, evt Event) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			logger.Warn("event publish failed",
				zap.String("type", string(evt.Type)),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
