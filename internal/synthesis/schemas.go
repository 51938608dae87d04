package synthesis

import (
	"bytes"
	"encoding/json"

	"github.com/selivandex/spectrum-feed/internal/adapters/ai"
	"github.com/selivandex/spectrum-feed/pkg/models"
)

const (
	minPostContent    = 500
	maxCommentContent = 500
	maxCommentsPerRun = 3
	maxPostsPerRun    = 3
)

// EntityOutput is one entity extracted by the post model
type EntityOutput struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Sentiment string `json:"sentiment"`
}

// PostOutput is the structured answer of the post model
type PostOutput struct {
	Title    string         `json:"title"`
	Content  string         `json:"content" validate:"min=500"`
	Entities []EntityOutput `json:"entities"`
	Spectrum string         `json:"spectrum" validate:"spectrum"`
}

// CommentOutput is one comment written from an ideology
type CommentOutput struct {
	Ideology string `json:"ideology" validate:"required,ideology"`
	Content  string `json:"content" validate:"required,max=500,nonblank"`
}

// CommentBatch is the structured answer of the comment model
type CommentBatch struct {
	Comments []CommentOutput `json:"comments" validate:"min=1,max=3,dive"`
}

// UnmarshalJSON accepts both {"comments":[...]} and a bare array
func (b *CommentBatch) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &b.Comments)
	}

	type plain CommentBatch
	return json.Unmarshal(data, (*plain)(b))
}

func postSchema() *ai.Schema {
	return &ai.Schema{
		Type: "object",
		Properties: map[string]*ai.Schema{
			"title": {Type: "string", Description: "Post title in Portuguese"},
			"content": {
				Type:        "string",
				Description: "Post body in Portuguese",
				MinLength:   ai.Int64(minPostContent),
			},
			"entities": {
				Type: "array",
				Items: &ai.Schema{
					Type: "object",
					Properties: map[string]*ai.Schema{
						"name": {Type: "string", Description: "Full name without abbreviations"},
						"type": {Type: "string", Enum: []string{
							string(models.EntityPerson), string(models.EntityOrganization),
						}},
						"sentiment": {Type: "string", Enum: []string{
							string(models.SentimentPositive), string(models.SentimentNegative), string(models.SentimentNeutral),
						}},
					},
					Required: []string{"name", "type", "sentiment"},
				},
			},
			"spectrum": {Type: "string", Enum: models.IdeologyStrings(models.Spectrums)},
		},
		Required: []string{"title", "content", "entities", "spectrum"},
	}
}

func commentSchema() *ai.Schema {
	return &ai.Schema{
		Type: "object",
		Properties: map[string]*ai.Schema{
			"comments": {
				Type:     "array",
				MinItems: ai.Int64(1),
				MaxItems: ai.Int64(maxCommentsPerRun),
				Items: &ai.Schema{
					Type: "object",
					Properties: map[string]*ai.Schema{
						"ideology": {Type: "string", Enum: models.IdeologyStrings(models.Ideologies)},
						"content": {
							Type:      "string",
							MinLength: ai.Int64(1),
							MaxLength: ai.Int64(maxCommentContent),
						},
					},
					Required: []string{"ideology", "content"},
				},
			},
		},
		Required: []string{"comments"},
	}
}
