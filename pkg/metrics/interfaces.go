package metrics

import "context"

// Metric is one row of a ClickHouse metrics table
type Metric interface {
	TableName() string
	Columns() []string
	// Values are ordered like Columns
	Values() []any
}

// Writer writes metrics to storage
type Writer interface {
	Write(ctx context.Context, tableName string, metrics []Metric) error
	Close() error
}

// Buffer batches metrics in memory. Add never blocks the caller.
type Buffer interface {
	Add(metric Metric) error
	Flush(ctx context.Context) error
	Size() int
	Close(ctx context.Context) error
}

// Nop discards every metric. Used when ClickHouse is disabled.
type Nop struct{}

func (Nop) Add(Metric) error { return nil }

func (Nop) Flush(context.Context) error { return nil }

func (Nop) Size() int { return 0 }

func (Nop) Close(context.Context) error { return nil }
