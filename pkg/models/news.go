package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Newspaper is an ingested news article. Rows are never updated after insert.
type Newspaper struct {
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Author      string    `json:"author" db:"author"`
	URL         string    `json:"url" db:"url"`
	URLToImage  string    `json:"url_to_image" db:"url_to_image"`
	Content     string    `json:"content" db:"content"`
	Source      string    `json:"source" db:"source"`
}

// ArticleSource is the publisher block of an upstream article
type ArticleSource struct {
	ID   *string `json:"id,omitempty"`
	Name *string `json:"name" validate:"required"`
}

// RawArticle is an upstream article exactly as received.
// Pointer fields distinguish a missing value from an empty string.
type RawArticle struct {
	Source      *ArticleSource `json:"source" validate:"required"`
	PublishedAt *FlexibleTime  `json:"publishedAt" validate:"required"`
	Title       *string        `json:"title" validate:"required"`
	Description *string        `json:"description" validate:"required"`
	Author      *string        `json:"author" validate:"required"`
	URL         *string        `json:"url" validate:"required"`
	URLToImage  *string        `json:"urlToImage" validate:"required"`
	Content     *string        `json:"content" validate:"required"`
}

// ToNewspaper converts a validated article into a storable row
func (a *RawArticle) ToNewspaper() (*Newspaper, error) {
	src, err := json.Marshal(a.Source)
	if err != nil {
		return nil, fmt.Errorf("encode source: %w", err)
	}

	return &Newspaper{
		Title:       deref(a.Title),
		Description: deref(a.Description),
		Author:      deref(a.Author),
		URL:         deref(a.URL),
		URLToImage:  deref(a.URLToImage),
		Content:     deref(a.Content),
		PublishedAt: a.PublishedAt.Time.UTC(),
		Source:      string(src),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// FlexibleTime accepts a timestamp string or a unix epoch number (milliseconds)
type FlexibleTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler
func (t *FlexibleTime) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return fmt.Errorf("publishedAt is null")
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}

	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("publishedAt: unsupported value %s", raw)
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

// MarshalJSON implements json.Marshaler
func (t FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp parses the timestamp formats news sources are known to emit
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
