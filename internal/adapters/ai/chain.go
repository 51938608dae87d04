package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
)

// Chain tries providers in order and returns the first successful answer
type Chain struct {
	providers []Provider
}

// NewChain creates a fallback chain. At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no AI providers configured")
	}
	return &Chain{providers: providers}, nil
}

func (c *Chain) GetName() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.GetName()
	}
	return strings.Join(names, ",")
}

// GetCost returns the cost of the primary provider
func (c *Chain) GetCost() float64 {
	return c.providers[0].GetCost()
}

func (c *Chain) Generate(ctx context.Context, req *Request) (string, error) {
	var errs []error
	for _, p := range c.providers {
		text, err := p.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		logger.Warn("AI provider failed, trying next",
			zap.String("provider", p.GetName()),
			zap.String("schema", req.Name),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", p.GetName(), err))
	}

	return "", fmt.Errorf("all AI providers failed: %w", errors.Join(errs...))
}
