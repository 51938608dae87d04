package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
)

// ClickHouseRepository inserts metric rows with the clickhouse-go batch protocol:
// rows prepared on one statement inside a transaction are sent as a single block on commit.
type ClickHouseRepository struct {
	db *sqlx.DB
}

func NewClickHouseRepository(db *sqlx.DB) *ClickHouseRepository {
	return &ClickHouseRepository{db: db}
}

func insertStatement(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
}

func (r *ClickHouseRepository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if len(columns) == 0 {
		return fmt.Errorf("no columns for %s", table)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s batch: %w", table, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertStatement(table, columns))
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("append row %d to %s: %w", i, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("send %s batch: %w", table, err)
	}

	logger.Debug("clickhouse batch sent",
		zap.String("table", table),
		zap.Int("rows", len(rows)),
	)
	return nil
}

// Close leaves the connection open, app.App owns it
func (r *ClickHouseRepository) Close() error {
	return nil
}
