package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// VisitSink inserts rows into one table per destination. Each batch runs in its own
// transaction so a destination is stored completely or not at all.
type VisitSink struct {
	pool *pgxpool.Pool
}

// NewVisitSink wires a sink backed by pgxpool.
func NewVisitSink(pool *pgxpool.Pool) *VisitSink {
	return &VisitSink{pool: pool}
}

func (s *VisitSink) Insert(ctx context.Context, batch intakeapp.Batch) error {
	if s.pool == nil {
		return fmt.Errorf("visit sink not initialized")
	}
	if len(batch.Rows) == 0 {
		return nil
	}

	columns := batch.Destination.Columns()
	statement := insertStatement(batch.Destination.TableName(), columns)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i, row := range batch.Rows {
			if _, err := tx.Exec(ctx, statement, rowArgs(columns, row)...); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", batch.Destination.TableName(), err)
	}
	return nil
}

// Ping checks the pool.
func (s *VisitSink) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// insertStatement builds a parameterized INSERT; table may be schema-qualified.
func insertStatement(table string, columns []string) string {
	quoted := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for i, column := range columns {
		quoted = append(quoted, pgx.Identifier{column}.Sanitize())
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier(strings.Split(table, ".")).Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
}

func rowArgs(columns []string, row domain.Row) []any {
	args := make([]any, 0, len(columns))
	for _, column := range columns {
		args = append(args, row[column])
	}
	return args
}
