package ai

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/metrics"
)

// Instrumented records an llm_calls metric for every call of the wrapped provider
type Instrumented struct {
	Provider
	buffer metrics.Buffer
}

// NewInstrumented wraps p
func NewInstrumented(p Provider, buffer metrics.Buffer) *Instrumented {
	return &Instrumented{Provider: p, buffer: buffer}
}

func (i *Instrumented) Generate(ctx context.Context, req *Request) (string, error) {
	start := time.Now()
	text, err := i.Provider.Generate(ctx, req)

	metric := &metrics.LLMCallMetric{
		Timestamp:  start.UTC(),
		Provider:   i.GetName(),
		Schema:     req.Name,
		Cost:       decimal.NewFromFloat(i.GetCost()),
		PromptLen:  len(req.System) + len(req.User),
		OutputLen:  len(text),
		DurationMs: time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if addErr := i.buffer.Add(metric); addErr != nil {
		logger.Warn("failed to record llm call metric", zap.Error(addErr))
	}

	return text, err
}
