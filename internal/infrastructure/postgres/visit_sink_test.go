package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

func TestInsertStatementQuotesIdentifiers(t *testing.T) {
	statement := insertStatement("analytics.every_visit", []string{"responder_name", "age", `odd"name`})

	assert.Equal(t,
		`INSERT INTO "analytics"."every_visit" ("responder_name", "age", "odd""name") VALUES ($1, $2, $3)`,
		statement,
	)
}

func TestRowArgsFollowColumnOrder(t *testing.T) {
	dest, ok := domain.DefaultCatalog().Lookup("annual_visit")
	require.True(t, ok)
	columns := dest.Columns()

	row := domain.Row{domain.FieldResponderName: "Sam", "age": 15}
	args := rowArgs(columns, row)

	require.Len(t, args, len(columns))
	assert.Equal(t, "Sam", args[0])
	for i, column := range columns {
		if column == "age" {
			assert.Equal(t, 15, args[i])
		}
		if column == "gender" {
			assert.Nil(t, args[i])
		}
	}
}

func TestVisitSinkRequiresPool(t *testing.T) {
	sink := NewVisitSink(nil)
	err := sink.Insert(context.Background(), intakeapp.Batch{Rows: []domain.Row{{}}})
	assert.EqualError(t, err, "visit sink not initialized")
}

func TestFailedInsertStatement(t *testing.T) {
	repo := NewFailedInsertRepository(nil, "")
	assert.Equal(t,
		`INSERT INTO "failed_inserts" ("ingest_id", "destination", "table_name", "row_count", "raw_payload", "received_at", "error") VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		repo.statement,
	)

	err := repo.RecordFailure(context.Background(), intakeapp.FailedBatch{IngestID: "ingest-1"})
	assert.EqualError(t, err, "failed insert repository not initialized")
}
