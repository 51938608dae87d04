package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
)

// NewClickHouse opens the metrics store through the clickhouse database/sql driver
func NewClickHouse(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping failed: %w", err)
	}

	logger.Info("ClickHouse connection established")

	return conn, nil
}

// EnsureClickHouseSchema creates the metrics tables when missing
func EnsureClickHouseSchema(ctx context.Context, conn *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			timestamp DateTime64(3),
			job LowCardinality(String),
			trigger LowCardinality(String),
			outcome LowCardinality(String),
			error String,
			created Int32,
			duration_ms Int64
		) ENGINE = MergeTree ORDER BY (job, timestamp)`,
		`CREATE TABLE IF NOT EXISTS llm_calls (
			timestamp DateTime64(3),
			provider LowCardinality(String),
			schema LowCardinality(String),
			cost_usd Float64,
			prompt_len Int32,
			output_len Int32,
			duration_ms Int64,
			success Bool
		) ENGINE = MergeTree ORDER BY (provider, timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			logger.Error("failed to create clickhouse table", zap.Error(err))
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}

	return nil
}
