package models

import "time"

// Post is a synthesized social post derived from one newspaper
type Post struct {
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	NewspaperID *string   `json:"newspaper_id,omitempty" db:"newspaper_id"`
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	Spectrum    Ideology  `json:"spectrum" db:"spectrum"`
	Scope       PostScope `json:"scope" db:"scope"`
	Link        string    `json:"link" db:"link"`
}

// Entity is a person or organization mentioned by posts
type Entity struct {
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Type      EntityType `json:"type" db:"type"`
}

// PostEntity links a post to an entity with the post's stance towards it
type PostEntity struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	EntityID  string    `json:"entity_id" db:"entity_id"`
	Sentiment Sentiment `json:"sentiment" db:"sentiment"`
}

// Comment is a reply attached to a post. AI comments carry the ideology as commentator.
type Comment struct {
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Commentator *string   `json:"commentator,omitempty" db:"commentator"`
	EntityID    *string   `json:"entity_id,omitempty" db:"entity_id"`
	ID          string    `json:"id" db:"id"`
	PostID      string    `json:"post_id" db:"post_id"`
	Content     string    `json:"content" db:"content"`
	AI          bool      `json:"ai" db:"ai"`
}

// EntityLink is a PostEntity joined with its entity
type EntityLink struct {
	PostEntity
	Entity Entity `json:"entity" db:"entity"`
}

// CommentView is a comment joined with its optional entity
type CommentView struct {
	Comment
	Entity *Entity `json:"entity,omitempty" db:"-"`
}

// PostWithRelations is the feed read model of a post
type PostWithRelations struct {
	Post
	Entities []EntityLink  `json:"entities" db:"-"`
	Comments []CommentView `json:"comments" db:"-"`
}

// EntityIDs returns the IDs of the linked entities in link order
func (p *PostWithRelations) EntityIDs() []string {
	ids := make([]string, 0, len(p.Entities))
	for _, link := range p.Entities {
		ids = append(ids, link.EntityID)
	}
	return ids
}

// Activity is one entry of the activity feed: an entity mention
type Activity = EntityLink
