package application

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// ServiceConfig defines dependencies required by the ingest service.
type ServiceConfig struct {
	Catalog  domain.Catalog
	Sink     Sink
	Failures FailureRecorder
	Logger   *log.Logger
	Clock    func() time.Time
	NewID    func() string
}

// ingestService implements IngestService.
type ingestService struct {
	catalog  domain.Catalog
	sink     Sink
	failures FailureRecorder
	logger   *log.Logger
	clock    func() time.Time
	newID    func() string
}

// NewIngestService creates a new IngestService.
func NewIngestService(cfg ServiceConfig) IngestService {
	svc := &ingestService{
		catalog:  cfg.Catalog,
		sink:     cfg.Sink,
		failures: cfg.Failures,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
		newID:    cfg.NewID,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.newID == nil {
		svc.newID = func() string { return uuid.NewString() }
	}
	return svc
}

// Ingest runs one webhook body through decode, extract and build, then hands each destination's
// rows to the sink. A SinkError lists the destinations that failed; the others stay stored.
func (s *ingestService) Ingest(ctx context.Context, req IngestRequest) (Summary, error) {
	ingestID := s.newID()
	receivedAt := s.clock().UTC().Format(time.RFC3339Nano)
	summary := Summary{
		Status:        statusOK,
		IngestID:      ingestID,
		TablesUpdated: []string{},
	}

	tree, err := Decode(req.ContentType, req.Body)
	if err != nil {
		return summary, err
	}

	meta, submissions := Extract(tree)
	rawPayload := string(req.Body)
	result := BuildRows(meta, submissions, s.catalog, rawPayload, receivedAt)

	summary.Skipped = len(result.Skipped)
	summary.Warnings = result.Warnings
	for _, skip := range result.Skipped {
		s.logf("未登録のアンケートをスキップ: ingest=%s index=%d questionnaire=%q", ingestID, skip.Index, skip.QuestionnaireID)
	}
	for _, warning := range result.Warnings {
		s.logf("値を null に変換: ingest=%s destination=%s field=%s raw=%q", ingestID, warning.Destination, warning.Field, warning.Raw)
	}

	if result.RowCount() == 0 {
		return summary, nil
	}

	var failures []domain.DestinationFailure
	for _, dest := range s.catalog.Destinations() {
		rows := result.Rows[dest.ID]
		if len(rows) == 0 {
			continue
		}
		batch := Batch{IngestID: ingestID, Destination: dest, Rows: rows}
		if err := s.sink.Insert(ctx, batch); err != nil {
			s.logf("%s への保存に失敗: ingest=%s rows=%d err=%v", dest.TableName(), ingestID, len(rows), err)
			failures = append(failures, domain.DestinationFailure{
				Destination: dest.ID,
				Table:       dest.TableName(),
				Rows:        len(rows),
				Err:         err,
			})
			s.recordFailure(ctx, batch, rawPayload, receivedAt, err)
			continue
		}
		summary.RowsInserted += len(rows)
		summary.TablesUpdated = append(summary.TablesUpdated, dest.TableName())
	}

	if len(failures) > 0 {
		summary.Status = statusError
		return summary, &domain.SinkError{Failures: failures}
	}
	return summary, nil
}

func (s *ingestService) recordFailure(ctx context.Context, batch Batch, rawPayload, receivedAt string, cause error) {
	if s.failures == nil {
		return
	}
	failure := FailedBatch{
		IngestID:    batch.IngestID,
		Destination: batch.Destination.ID,
		Table:       batch.Destination.TableName(),
		RowCount:    len(batch.Rows),
		RawPayload:  rawPayload,
		ReceivedAt:  receivedAt,
		Error:       cause.Error(),
	}
	if err := s.failures.RecordFailure(ctx, failure); err != nil {
		s.logf("failed_inserts への保存に失敗: ingest=%s err=%v", batch.IngestID, err)
	}
}

func (s *ingestService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
