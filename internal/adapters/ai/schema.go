package ai

import (
	"encoding/json"
	"strings"

	"google.golang.org/genai"
)

// Schema is the subset of JSON Schema used for structured output.
// It marshals to plain JSON Schema (OpenAI, Claude) and converts to genai.Schema (Gemini).
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	MinLength   *int64             `json:"minLength,omitempty"`
	MaxLength   *int64             `json:"maxLength,omitempty"`
	MinItems    *int64             `json:"minItems,omitempty"`
	MaxItems    *int64             `json:"maxItems,omitempty"`
}

// MarshalJSON implements json.Marshaler so a Schema can be handed to go-openai directly
func (s *Schema) MarshalJSON() ([]byte, error) {
	type plain Schema
	return json.Marshal((*plain)(s))
}

// String renders the schema for prompt-embedded instructions
func (s *Schema) String() string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// Int64 returns a pointer to v, for schema bounds
func Int64(v int64) *int64 {
	return &v
}

// ToGenai converts the schema into Gemini's response schema type
func (s *Schema) ToGenai() *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		MinLength:   s.MinLength,
		MaxLength:   s.MaxLength,
		MinItems:    s.MinItems,
		MaxItems:    s.MaxItems,
		Items:       s.Items.ToGenai(),
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.ToGenai()
		}
		// keep the model's field order stable
		out.PropertyOrdering = s.Required
	}

	if len(s.Enum) > 0 {
		out.Format = "enum"
	}

	return out
}
