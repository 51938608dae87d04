package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/selivandex/spectrum-feed/pkg/validation"
)

// ErrInvalidOutput is returned when the model answer does not match the requested schema
var ErrInvalidOutput = errors.New("model output does not match schema")

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// GenerateInto runs req and decodes the answer into dst, then validates dst.
// The raw model text is returned even when decoding fails.
func GenerateInto(ctx context.Context, p Provider, req *Request, dst any) (string, error) {
	raw, err := p.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	if err := Decode(raw, dst); err != nil {
		return raw, err
	}

	return raw, nil
}

// Decode parses model JSON into dst and runs struct validation on it
func Decode(raw string, dst any) error {
	text := extractJSON(raw)
	if text == "" {
		return ErrEmptyResponse
	}

	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if err := validation.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	return nil
}

// extractJSON extracts JSON from text that might contain markdown or extra content
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	// a complete JSON reply is used as is, fences inside its strings are content
	if json.Valid([]byte(text)) {
		return text
	}

	if matches := codeFence.FindStringSubmatch(text); len(matches) > 1 {
		if fenced := strings.TrimSpace(matches[1]); json.Valid([]byte(fenced)) {
			return fenced
		}
	}

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")

	var start int
	var endChar string

	switch {
	case startObj >= 0 && (startArr < 0 || startObj < startArr):
		start, endChar = startObj, "}"
	case startArr >= 0:
		start, endChar = startArr, "]"
	default:
		return strings.TrimSpace(text)
	}

	if end := strings.LastIndex(text, endChar); end > start {
		return strings.TrimSpace(text[start : end+1])
	}

	return strings.TrimSpace(text)
}

// withSchemaInstructions appends the output schema for providers without native schema support
func withSchemaInstructions(system string, schema *Schema) string {
	if schema == nil {
		return system
	}
	return system + "\n\nRespond with a single JSON value, no prose, matching this JSON Schema:\n" + schema.String()
}
