package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// FailedInsertDocument は保存に失敗したバッチを再投入用に保持するドキュメント。
type FailedInsertDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	IngestID    string             `bson:"ingestId"`
	Destination string             `bson:"destination"`
	Table       string             `bson:"table"`
	RowCount    int                `bson:"rowCount"`
	RawPayload  string             `bson:"rawPayload"`
	ReceivedAt  string             `bson:"receivedAt"`
	Error       string             `bson:"error"`
	Attempts    int                `bson:"attempts"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

// rowDocument は行を宛先のカラム順で bson.D に変換する。カラム外のキーは末尾に名前順で付与する。
func rowDocument(dest domain.Destination, row domain.Row) bson.D {
	columns := dest.Columns()
	doc := make(bson.D, 0, len(row))
	seen := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		seen[column] = struct{}{}
		doc = append(doc, bson.E{Key: column, Value: row[column]})
	}
	for _, key := range extraKeys(row, seen) {
		doc = append(doc, bson.E{Key: key, Value: row[key]})
	}
	return doc
}
