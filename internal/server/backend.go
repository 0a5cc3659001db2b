package server

import (
	"context"
	"fmt"

	"github.com/ps1339880-hash/webhook-visitor/internal/config"
	mongostore "github.com/ps1339880-hash/webhook-visitor/internal/infrastructure/mongo"
	"github.com/ps1339880-hash/webhook-visitor/internal/infrastructure/postgres"
	"github.com/ps1339880-hash/webhook-visitor/internal/infrastructure/redisqueue"
	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

// Backend bundles the storage side of the webhook: where rows go, where rejected batches go,
// and how to check and release the connection.
type Backend struct {
	Name     string
	Sink     intakeapp.Sink
	Failures intakeapp.FailureRecorder
	Ping     func(ctx context.Context) error
	Close    func(ctx context.Context) error
}

// OpenBackend connects the sink selected by cfg.SinkBackend.
func OpenBackend(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.SinkBackend {
	case config.SinkMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.Timeout)
		if err != nil {
			return Backend{}, fmt.Errorf("mongo シンク: %w", err)
		}
		database := client.Database(cfg.MongoDatabase)
		return Backend{
			Name:     config.SinkMongo,
			Sink:     mongostore.NewVisitSink(database),
			Failures: mongostore.NewFailedInsertRepository(database, cfg.FailedInsertCollection),
			Ping: func(ctx context.Context) error {
				return mongostore.Ping(ctx, client)
			},
			Close: client.Disconnect,
		}, nil

	case config.SinkRedis:
		client, err := redisqueue.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return Backend{}, fmt.Errorf("redis シンク: %w", err)
		}
		sink := redisqueue.NewSink(client, cfg.RedisQueuePrefix)
		return Backend{
			Name:     config.SinkRedis,
			Sink:     sink,
			Failures: sink,
			Ping:     sink.Ping,
			Close: func(context.Context) error {
				return client.Close()
			},
		}, nil

	case config.SinkPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return Backend{}, fmt.Errorf("postgres シンク: %w", err)
		}
		sink := postgres.NewVisitSink(pool)
		return Backend{
			Name:     config.SinkPostgres,
			Sink:     sink,
			Failures: postgres.NewFailedInsertRepository(pool, cfg.FailedInsertCollection),
			Ping:     sink.Ping,
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	}

	return Backend{}, fmt.Errorf("unsupported sink backend %q", cfg.SinkBackend)
}
