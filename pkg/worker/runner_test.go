package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type funcWorker struct {
	name string
	fn   func(ctx context.Context) error
}

func (w funcWorker) Name() string { return w.name }

func (w funcWorker) Run(ctx context.Context) error { return w.fn(ctx) }

func TestGroupRunsImmediatelyAndStops(t *testing.T) {
	var runs atomic.Int32
	g := NewGroup(context.Background())
	g.Add(funcWorker{name: "count", fn: func(context.Context) error {
		runs.Add(1)
		return errors.New("keeps running after errors")
	}}, 10*time.Millisecond)
	g.Add(funcWorker{name: "disabled", fn: func(context.Context) error { return nil }}, 0)

	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}

	g.Start()
	deadline := time.Now().Add(time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	g.Stop(time.Second)

	if runs.Load() < 3 {
		t.Errorf("runs = %d, want at least 3", runs.Load())
	}

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Error("worker kept running after Stop")
	}
}
