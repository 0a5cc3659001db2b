package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

// DefaultFailedInsertTable stores batches the sink rejected.
const DefaultFailedInsertTable = "failed_inserts"

// FailedInsertRepository keeps rejected batches with their raw payload for replay.
type FailedInsertRepository struct {
	pool      *pgxpool.Pool
	statement string
}

// NewFailedInsertRepository targets table, which may be schema-qualified.
func NewFailedInsertRepository(pool *pgxpool.Pool, table string) *FailedInsertRepository {
	table = strings.TrimSpace(table)
	if table == "" {
		table = DefaultFailedInsertTable
	}
	return &FailedInsertRepository{
		pool:      pool,
		statement: failedInsertStatement(table),
	}
}

func (r *FailedInsertRepository) RecordFailure(ctx context.Context, failure intakeapp.FailedBatch) error {
	if r.pool == nil {
		return fmt.Errorf("failed insert repository not initialized")
	}
	_, err := r.pool.Exec(ctx, r.statement,
		failure.IngestID,
		failure.Destination,
		failure.Table,
		failure.RowCount,
		failure.RawPayload,
		failure.ReceivedAt,
		failure.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record failed insert: %w", err)
	}
	return nil
}

func failedInsertStatement(table string) string {
	return insertStatement(table, []string{
		"ingest_id",
		"destination",
		"table_name",
		"row_count",
		"raw_payload",
		"received_at",
		"error",
	})
}
