package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pipeline run outcomes
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeBusy  = "busy"
	OutcomeError = "error"
)

// PipelineRunMetric records one run of a pipeline stage
type PipelineRunMetric struct {
	Timestamp  time.Time
	Job        string
	Trigger    string
	Outcome    string
	Error      string
	Created    int
	DurationMs int64
}

func (m *PipelineRunMetric) TableName() string {
	return "pipeline_runs"
}

func (m *PipelineRunMetric) Columns() []string {
	return []string{"timestamp", "job", "trigger", "outcome", "error", "created", "duration_ms"}
}

func (m *PipelineRunMetric) Values() []any {
	return []any{
		m.Timestamp,
		m.Job,
		m.Trigger,
		m.Outcome,
		m.Error,
		m.Created,
		m.DurationMs,
	}
}

// LLMCallMetric records one structured generation call
type LLMCallMetric struct {
	Timestamp  time.Time
	Provider   string
	Schema     string
	Cost       decimal.Decimal
	PromptLen  int
	OutputLen  int
	DurationMs int64
	Success    bool
}

func (m *LLMCallMetric) TableName() string {
	return "llm_calls"
}

func (m *LLMCallMetric) Columns() []string {
	return []string{"timestamp", "provider", "schema", "cost_usd", "prompt_len", "output_len", "duration_ms", "success"}
}

func (m *LLMCallMetric) Values() []any {
	return []any{
		m.Timestamp,
		m.Provider,
		m.Schema,
		m.Cost.InexactFloat64(),
		m.PromptLen,
		m.OutputLen,
		m.DurationMs,
		m.Success,
	}
}
