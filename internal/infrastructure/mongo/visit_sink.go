package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

type manyInserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// VisitSink は宛先ごとのコレクションへ行を保存する Sink 実装。
type VisitSink struct {
	collection func(name string) manyInserter
}

// NewVisitSink は宛先のテーブル名をコレクション名として使う Sink を生成する。
func NewVisitSink(db *mongo.Database) *VisitSink {
	return &VisitSink{
		collection: func(name string) manyInserter {
			return db.Collection(name)
		},
	}
}

// Insert はバッチを順序付き InsertMany で一括保存する。
func (s *VisitSink) Insert(ctx context.Context, batch intakeapp.Batch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		docs = append(docs, rowDocument(batch.Destination, row))
	}

	name := batch.Destination.TableName()
	if _, err := s.collection(name).InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("%s コレクションへの挿入に失敗: %w", name, err)
	}
	return nil
}
