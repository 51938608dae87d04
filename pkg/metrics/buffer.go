package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
)

var (
	// ErrBufferFull is returned by Add when the queue is saturated; the metric is dropped
	ErrBufferFull = errors.New("metrics buffer full")
	// ErrBufferClosed is returned by Add after Close
	ErrBufferClosed = errors.New("metrics buffer closed")
)

// BufferConfig configures metrics buffer
type BufferConfig struct {
	Writer        Writer
	BatchSize     int
	FlushInterval time.Duration
	FlushTimeout  time.Duration
	// QueueSize bounds metrics waiting for the flush loop, defaults to 4 batches
	QueueSize int
}

// BufferedMetrics owns pending rows in a single loop goroutine. Pipeline runs
// and LLM calls only enqueue, so a slow ClickHouse never delays a stage.
type BufferedMetrics struct {
	writer        Writer
	queue         chan Metric
	flushRequests chan chan error
	done          chan struct{}
	stopped       chan struct{}
	closeOnce     sync.Once
	closed        atomic.Bool
	queued        atomic.Int64
	dropped       atomic.Int64
	batchSize     int
	flushInterval time.Duration
	flushTimeout  time.Duration
}

// NewBufferedMetrics starts the flush loop
func NewBufferedMetrics(cfg BufferConfig) *BufferedMetrics {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.BatchSize * 4
	}

	bm := &BufferedMetrics{
		writer:        cfg.Writer,
		queue:         make(chan Metric, cfg.QueueSize),
		flushRequests: make(chan chan error),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		flushTimeout:  cfg.FlushTimeout,
	}

	go bm.loop()

	logger.Info("metrics buffer initialized",
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("flush_interval", cfg.FlushInterval),
	)

	return bm
}

// Add enqueues metric without blocking
func (bm *BufferedMetrics) Add(metric Metric) error {
	if metric == nil {
		return fmt.Errorf("metric is nil")
	}
	if metric.TableName() == "" {
		return fmt.Errorf("metric table name is empty")
	}
	if bm.closed.Load() {
		return ErrBufferClosed
	}

	select {
	case bm.queue <- metric:
		bm.queued.Add(1)
		return nil
	default:
		bm.dropped.Add(1)
		return ErrBufferFull
	}
}

// Flush writes everything queued so far
func (bm *BufferedMetrics) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case bm.flushRequests <- reply:
	case <-bm.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Size is the number of metrics not yet handed to the writer
func (bm *BufferedMetrics) Size() int {
	return int(bm.queued.Load())
}

// Dropped counts metrics rejected because the queue was full
func (bm *BufferedMetrics) Dropped() int64 {
	return bm.dropped.Load()
}

// Close stops the loop, writes what is left and closes the writer
func (bm *BufferedMetrics) Close(ctx context.Context) error {
	var err error
	bm.closeOnce.Do(func() {
		logger.Info("closing metrics buffer...", zap.Int64("dropped", bm.dropped.Load()))
		bm.closed.Store(true)
		close(bm.done)

		select {
		case <-bm.stopped:
		case <-ctx.Done():
			err = fmt.Errorf("metrics buffer close: %w", ctx.Err())
			return
		}

		if closeErr := bm.writer.Close(); closeErr != nil {
			logger.Error("writer close failed", zap.Error(closeErr))
			err = closeErr
		}
	})
	return err
}

func (bm *BufferedMetrics) loop() {
	defer close(bm.stopped)

	ticker := time.NewTicker(bm.flushInterval)
	defer ticker.Stop()

	pending := make(map[string][]Metric)

	for {
		select {
		case m := <-bm.queue:
			table := m.TableName()
			pending[table] = append(pending[table], m)
			if len(pending[table]) >= bm.batchSize {
				bm.writeTables(pending, table)
			}

		case <-ticker.C:
			if err := bm.writeTables(pending); err != nil {
				logger.Warn("periodic metrics flush failed", zap.Error(err))
			}

		case reply := <-bm.flushRequests:
			bm.drainQueue(pending)
			reply <- bm.writeTables(pending)

		case <-bm.done:
			bm.drainQueue(pending)
			if err := bm.writeTables(pending); err != nil {
				logger.Error("final metrics flush failed", zap.Error(err))
			}
			return
		}
	}
}

// drainQueue moves already queued metrics into pending
func (bm *BufferedMetrics) drainQueue(pending map[string][]Metric) {
	for {
		select {
		case m := <-bm.queue:
			pending[m.TableName()] = append(pending[m.TableName()], m)
		default:
			return
		}
	}
}

// writeTables writes the named tables, or every table when none is named.
// Rows are discarded after a failed write; metrics are best effort.
func (bm *BufferedMetrics) writeTables(pending map[string][]Metric, tables ...string) error {
	if len(tables) == 0 {
		for table := range pending {
			tables = append(tables, table)
		}
	}

	var errs []error
	for _, table := range tables {
		rows := pending[table]
		if len(rows) == 0 {
			continue
		}
		delete(pending, table)

		ctx, cancel := context.WithTimeout(context.Background(), bm.flushTimeout)
		err := bm.writer.Write(ctx, table, rows)
		cancel()
		bm.queued.Add(-int64(len(rows)))

		if err != nil {
			logger.Error("failed to write metrics",
				zap.String("table", table),
				zap.Int("rows", len(rows)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
			continue
		}
		logger.Debug("metrics written", zap.String("table", table), zap.Int("rows", len(rows)))
	}

	return errors.Join(errs...)
}
