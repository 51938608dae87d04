package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text
var ErrEmptyResponse = errors.New("empty model response")

// Request is a single structured generation call
type Request struct {
	// Name identifies the output schema ("post", "comments") in logs and metrics
	Name        string
	System      string
	User        string
	Schema      *Schema
	Temperature float32
}

// Provider represents AI provider interface
type Provider interface {
	// Generate returns the raw JSON text produced for req
	Generate(ctx context.Context, req *Request) (string, error)

	// GetName returns provider name
	GetName() string

	// GetCost returns approximate cost per request in USD
	GetCost() float64
}
