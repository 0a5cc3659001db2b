package application

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

type stubSink struct {
	batches []Batch
	failFor map[string]error
}

func (s *stubSink) Insert(ctx context.Context, batch Batch) error {
	if err, ok := s.failFor[batch.Destination.ID]; ok {
		return err
	}
	s.batches = append(s.batches, batch)
	return nil
}

type stubRecorder struct {
	failures []FailedBatch
}

func (r *stubRecorder) RecordFailure(ctx context.Context, failure FailedBatch) error {
	r.failures = append(r.failures, failure)
	return nil
}

func newTestService(sink Sink, recorder FailureRecorder, logs *bytes.Buffer) IngestService {
	return NewIngestService(ServiceConfig{
		Catalog:  domain.DefaultCatalog(),
		Sink:     sink,
		Failures: recorder,
		Logger:   log.New(logs, "", 0),
		Clock:    func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("AWST", 8*60*60)) },
		NewID:    func() string { return "ingest-1" },
	})
}

const mixedBody = `{"name":"Jordan","submissions":[` +
	`{"questionnaireId":"8208","answers":[{"questionId":"49028","answer":"family visit"}]},` +
	`{"questionnaireId":"0000"},` +
	`{"questionnaireId":"8895","answers":[{"questionId":"47812","answer":"15"}]}]}`

func TestIngestInsertsEachDestination(t *testing.T) {
	sink := &stubSink{}
	var logs bytes.Buffer
	svc := newTestService(sink, nil, &logs)

	summary, err := svc.Ingest(context.Background(), IngestRequest{ContentType: "application/json", Body: []byte(mixedBody)})
	require.NoError(t, err)

	assert.Equal(t, "ok", summary.Status)
	assert.Equal(t, "ingest-1", summary.IngestID)
	assert.Equal(t, 2, summary.RowsInserted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"every_visit", "annual_visit"}, summary.TablesUpdated)

	require.Len(t, sink.batches, 2)
	for _, batch := range sink.batches {
		assert.Equal(t, "ingest-1", batch.IngestID)
		require.Len(t, batch.Rows, 1)
		assert.Equal(t, mixedBody, batch.Rows[0][domain.FieldRawPayload])
		assert.Equal(t, "2026-10-18T01:30:00Z", batch.Rows[0][domain.FieldReceivedAt])
	}
	assert.Equal(t, 15, sink.batches[1].Rows[0]["age"])
	assert.Contains(t, logs.String(), `questionnaire="0000"`)
}

func TestIngestZeroRowsSkipsSink(t *testing.T) {
	sink := &stubSink{failFor: map[string]error{"every_visit": errors.New("should not be called")}}
	svc := newTestService(sink, nil, &bytes.Buffer{})

	for _, body := range []string{`{"submissions":[]}`, `{"name":"x"}`, `{"submissions":[{"questionnaireId":"1"}]}`} {
		summary, err := svc.Ingest(context.Background(), IngestRequest{ContentType: "application/json", Body: []byte(body)})
		require.NoError(t, err)
		assert.Equal(t, "ok", summary.Status)
		assert.Equal(t, 0, summary.RowsInserted)
		assert.Empty(t, summary.TablesUpdated)
	}
	assert.Empty(t, sink.batches)
}

func TestIngestDecodeErrorIsReturned(t *testing.T) {
	sink := &stubSink{}
	svc := newTestService(sink, nil, &bytes.Buffer{})

	_, err := svc.Ingest(context.Background(), IngestRequest{ContentType: "application/json", Body: []byte("{broken")})

	var decodeErr *domain.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "{broken", decodeErr.Snippet)
	assert.Empty(t, sink.batches)
}

func TestIngestPartialSinkFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	sink := &stubSink{failFor: map[string]error{"annual_visit": cause}}
	recorder := &stubRecorder{}
	var logs bytes.Buffer
	svc := newTestService(sink, recorder, &logs)

	summary, err := svc.Ingest(context.Background(), IngestRequest{ContentType: "application/json", Body: []byte(mixedBody)})

	var sinkErr *domain.SinkError
	require.True(t, errors.As(err, &sinkErr))
	assert.Equal(t, []string{"annual_visit"}, sinkErr.Destinations())
	assert.ErrorIs(t, sinkErr.Failures[0].Err, cause)

	assert.Equal(t, "error", summary.Status)
	assert.Equal(t, 1, summary.RowsInserted)
	assert.Equal(t, []string{"every_visit"}, summary.TablesUpdated)
	require.Len(t, sink.batches, 1)

	require.Len(t, recorder.failures, 1)
	failure := recorder.failures[0]
	assert.Equal(t, "annual_visit", failure.Destination)
	assert.Equal(t, mixedBody, failure.RawPayload)
	assert.Equal(t, "quota exceeded", failure.Error)
	assert.Equal(t, 1, failure.RowCount)
}

func TestIngestFormBody(t *testing.T) {
	sink := &stubSink{}
	svc := newTestService(sink, nil, &bytes.Buffer{})
	body := "name=Sam&location_name=Midland&submissions[0][questionnaireId]=8208&submissions[0][answers][0][questionId]=49030&submissions[0][answers][0][answer]=Homework"

	summary, err := svc.Ingest(context.Background(), IngestRequest{ContentType: "application/x-www-form-urlencoded", Body: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RowsInserted)

	require.Len(t, sink.batches, 1)
	row := sink.batches[0].Rows[0]
	assert.Equal(t, "Homework", row["purpose_of_visit"])
	assert.Equal(t, "Sam", row[domain.FieldResponderName])
	assert.Equal(t, body, row[domain.FieldRawPayload])
}
