package metrics

import (
	"context"
	"fmt"
	"slices"

	"github.com/selivandex/spectrum-feed/pkg/metrics"
)

// Repository stores metric rows
type Repository interface {
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error
	Close() error
}

// Writer turns a batch of one table's metrics into column-aligned rows
type Writer struct {
	repo Repository
}

func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo}
}

// Write rejects batches that mix tables or column layouts, nothing is inserted then
func (w *Writer) Write(ctx context.Context, table string, batch []metrics.Metric) error {
	if len(batch) == 0 {
		return nil
	}

	columns := batch[0].Columns()
	rows := make([][]any, len(batch))
	for i, m := range batch {
		if m.TableName() != table {
			return fmt.Errorf("metric %d belongs to %s, not %s", i, m.TableName(), table)
		}
		if i > 0 && !slices.Equal(m.Columns(), columns) {
			return fmt.Errorf("metric %d has a different column layout", i)
		}

		values := m.Values()
		if len(values) != len(columns) {
			return fmt.Errorf("metric %d has %d values for %d columns", i, len(values), len(columns))
		}
		rows[i] = values
	}

	return w.repo.InsertRows(ctx, table, columns, rows)
}

func (w *Writer) Close() error {
	if w.repo == nil {
		return nil
	}
	return w.repo.Close()
}
