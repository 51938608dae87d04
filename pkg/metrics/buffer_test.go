package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingWriter struct {
	mu      sync.Mutex
	written map[string]int
	fail    bool
	closed  bool
}

func (w *recordingWriter) Write(_ context.Context, table string, metrics []Metric) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("boom")
	}
	if w.written == nil {
		w.written = make(map[string]int)
	}
	w.written[table] += len(metrics)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func (w *recordingWriter) count(table string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written[table]
}

func TestBufferedMetricsFlush(t *testing.T) {
	w := &recordingWriter{}
	bm := NewBufferedMetrics(BufferConfig{Writer: w, BatchSize: 100, FlushInterval: time.Hour})

	for i := 0; i < 3; i++ {
		if err := bm.Add(&PipelineRunMetric{Job: "ingest", Outcome: OutcomeOK}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := bm.Add(&LLMCallMetric{Provider: "gemini"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if got := bm.Size(); got != 4 {
		t.Errorf("Size() = %d, want 4", got)
	}

	if err := bm.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := w.count("pipeline_runs"); got != 3 {
		t.Errorf("pipeline_runs written = %d, want 3", got)
	}
	if got := w.count("llm_calls"); got != 1 {
		t.Errorf("llm_calls written = %d, want 1", got)
	}
	if !w.closed {
		t.Error("writer should be closed")
	}
}

func TestBufferedMetricsRejectsNil(t *testing.T) {
	bm := NewBufferedMetrics(BufferConfig{Writer: &recordingWriter{}, FlushInterval: time.Hour})
	defer bm.Close(context.Background())

	if err := bm.Add(nil); err == nil {
		t.Error("expected error for nil metric")
	}
}

func TestBufferedMetricsFlushError(t *testing.T) {
	w := &recordingWriter{fail: true}
	bm := NewBufferedMetrics(BufferConfig{Writer: w, FlushInterval: time.Hour})

	_ = bm.Add(&PipelineRunMetric{Job: "posts"})
	if err := bm.Flush(context.Background()); err == nil {
		t.Error("expected flush error")
	}
	if got := bm.Size(); got != 0 {
		t.Errorf("buffer should be drained even on failure, size = %d", got)
	}
	w.fail = false
	_ = bm.Close(context.Background())
}

type blockingWriter struct {
	entered chan struct{}
	release chan struct{}
}

func (w *blockingWriter) Write(context.Context, string, []Metric) error {
	w.entered <- struct{}{}
	<-w.release
	return nil
}

func (w *blockingWriter) Close() error { return nil }

func TestBufferedMetricsDropsWhenQueueFull(t *testing.T) {
	w := &blockingWriter{entered: make(chan struct{}, 4), release: make(chan struct{})}
	bm := NewBufferedMetrics(BufferConfig{Writer: w, BatchSize: 1, QueueSize: 1, FlushInterval: time.Hour})

	if err := bm.Add(&PipelineRunMetric{Job: "ingest"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	<-w.entered

	// the loop is stuck in Write, one slot left in the queue
	if err := bm.Add(&PipelineRunMetric{Job: "posts"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := bm.Add(&PipelineRunMetric{Job: "comments"}); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("Add() error = %v, want ErrBufferFull", err)
	}
	if bm.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", bm.Dropped())
	}

	close(w.release)
	if err := bm.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bm.Add(&PipelineRunMetric{Job: "ingest"}); !errors.Is(err, ErrBufferClosed) {
		t.Errorf("Add() after Close error = %v, want ErrBufferClosed", err)
	}
}

func TestBufferedMetricsWritesFullBatch(t *testing.T) {
	w := &recordingWriter{}
	bm := NewBufferedMetrics(BufferConfig{Writer: w, BatchSize: 2, FlushInterval: time.Hour})
	defer bm.Close(context.Background())

	_ = bm.Add(&LLMCallMetric{Provider: "gemini"})
	_ = bm.Add(&LLMCallMetric{Provider: "openai"})

	deadline := time.Now().Add(time.Second)
	for w.count("llm_calls") < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := w.count("llm_calls"); got != 2 {
		t.Errorf("llm_calls written = %d, want 2 without an explicit flush", got)
	}
}
