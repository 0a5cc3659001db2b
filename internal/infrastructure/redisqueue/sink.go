package redisqueue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

// DefaultQueuePrefix namespaces the per-destination queues.
const DefaultQueuePrefix = "visitor_rows"

// Envelope is the msgpack message pushed for each row.
type Envelope struct {
	IngestID    string         `msgpack:"ingest_id"`
	Destination string         `msgpack:"destination"`
	Table       string         `msgpack:"table"`
	Row         map[string]any `msgpack:"row"`
	TimestampMs int64          `msgpack:"timestamp_ms"`
}

// Sink pushes rows onto one Redis list per destination for a downstream loader.
type Sink struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewSink wraps a Redis client. An empty prefix falls back to DefaultQueuePrefix.
func NewSink(client *redis.Client, prefix string) *Sink {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultQueuePrefix
	}
	return &Sink{client: client, prefix: prefix, now: time.Now}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// QueueName returns the list key for a table.
func (s *Sink) QueueName(table string) string {
	return s.prefix + ":" + table
}

// Insert serializes every row and pushes the whole batch with a single RPUSH.
func (s *Sink) Insert(ctx context.Context, batch intakeapp.Batch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	table := batch.Destination.TableName()
	timestamp := s.now().UnixMilli()

	values := make([]interface{}, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		payload, err := msgpack.Marshal(&Envelope{
			IngestID:    batch.IngestID,
			Destination: batch.Destination.ID,
			Table:       table,
			Row:         row,
			TimestampMs: timestamp,
		})
		if err != nil {
			return fmt.Errorf("failed to serialize row for %s: %w", table, err)
		}
		values = append(values, payload)
	}

	if err := s.client.RPush(ctx, s.QueueName(table), values...).Err(); err != nil {
		return fmt.Errorf("failed to publish rows to %s: %w", s.QueueName(table), err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
