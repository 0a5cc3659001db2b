package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

type oneInserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// FailedInsertRepository は保存に失敗したバッチを failed_inserts コレクションへ記録する。
type FailedInsertRepository struct {
	collection oneInserter
	now        func() time.Time
}

// NewFailedInsertRepository は記録先コレクションを束縛したリポジトリを生成する。
func NewFailedInsertRepository(db *mongo.Database, collectionName string) *FailedInsertRepository {
	return &FailedInsertRepository{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

// RecordFailure は失敗バッチを pending 状態で保存する。
func (r *FailedInsertRepository) RecordFailure(ctx context.Context, failure intakeapp.FailedBatch) error {
	doc := FailedInsertDocument{
		ID:          primitive.NewObjectID(),
		IngestID:    failure.IngestID,
		Destination: failure.Destination,
		Table:       failure.Table,
		RowCount:    failure.RowCount,
		RawPayload:  failure.RawPayload,
		ReceivedAt:  failure.ReceivedAt,
		Error:       failure.Error,
		Attempts:    1,
		Status:      "pending",
		CreatedAt:   r.now().UTC(),
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
