package redisqueue

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

// FailedEnvelope is the msgpack message kept for a rejected batch.
type FailedEnvelope struct {
	IngestID    string `msgpack:"ingest_id"`
	Destination string `msgpack:"destination"`
	Table       string `msgpack:"table"`
	RowCount    int    `msgpack:"row_count"`
	RawPayload  string `msgpack:"raw_payload"`
	ReceivedAt  string `msgpack:"received_at"`
	Error       string `msgpack:"error"`
	TimestampMs int64  `msgpack:"timestamp_ms"`
}

// FailedQueueName is the dead-letter list that holds rejected batches.
func (s *Sink) FailedQueueName() string {
	return s.prefix + ":failed"
}

// RecordFailure appends the rejected batch to the dead-letter list.
func (s *Sink) RecordFailure(ctx context.Context, failure intakeapp.FailedBatch) error {
	payload, err := msgpack.Marshal(&FailedEnvelope{
		IngestID:    failure.IngestID,
		Destination: failure.Destination,
		Table:       failure.Table,
		RowCount:    failure.RowCount,
		RawPayload:  failure.RawPayload,
		ReceivedAt:  failure.ReceivedAt,
		Error:       failure.Error,
		TimestampMs: s.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize failed batch: %w", err)
	}
	if err := s.client.RPush(ctx, s.FailedQueueName(), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish failed batch: %w", err)
	}
	return nil
}
