package application

import (
	"context"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// Batch is the set of rows one request produced for a single destination.
type Batch struct {
	IngestID    string
	Destination domain.Destination
	Rows        []domain.Row
}

// Sink persists a batch of rows for one destination. Implementations report failure for the
// whole batch; rows already stored for other destinations are not rolled back.
type Sink interface {
	Insert(ctx context.Context, batch Batch) error
}

// FailedBatch is a batch the sink rejected, kept with its raw payload for replay.
type FailedBatch struct {
	IngestID    string
	Destination string
	Table       string
	RowCount    int
	RawPayload  string
	ReceivedAt  string
	Error       string
}

// FailureRecorder stores rejected batches.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, failure FailedBatch) error
}

// IngestRequest is the raw webhook call as received.
type IngestRequest struct {
	ContentType string
	Body        []byte
}

// Summary reports the outcome of one webhook call.
type Summary struct {
	Status        string                `json:"status"`
	IngestID      string                `json:"ingest_id"`
	RowsInserted  int                   `json:"rows_inserted"`
	TablesUpdated []string              `json:"tables_updated"`
	Skipped       int                   `json:"skipped"`
	Warnings      []domain.FieldWarning `json:"warnings,omitempty"`
}

// IngestService describes the webhook ingestion use-case.
type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (Summary, error)
}
