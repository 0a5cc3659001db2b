package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// Supported sink backends.
const (
	SinkMongo    = "mongo"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                   string
	Timeout                time.Duration
	ServerLog              *log.Logger
	BasicAuthUser          string
	BasicAuthPass          string
	JWTConfigs             []JWTConfig
	JWTAudience            string
	SinkBackend            string
	MongoURI               string
	MongoDatabase          string
	FailedInsertCollection string
	RedisURL               string
	RedisQueuePrefix       string
	PostgresDSN            string
	MaxBodyBytes           int64
	Destinations           []domain.Destination
}

// Load reads config.yaml (optional, from CONFIG_PATH or the working directory) and environment
// variables and returns a fully populated Config. Invalid configuration stops the process.
func Load() Config {
	cfg, err := load(viper.New(), os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	cfg.ServerLog.Printf("loaded config: addr=%q sink=%q destinations=%d", cfg.Addr, cfg.SinkBackend, len(cfg.Destinations))
	return cfg
}

func load(v *viper.Viper, configPath string) (Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("sink_backend", SinkMongo)
	v.SetDefault("mongo_uri", "mongodb://mongo:27017")
	v.SetDefault("mongo_db", "visitor_sign_in")
	v.SetDefault("failed_insert_collection", "failed_inserts")
	v.SetDefault("redis_url", "redis://127.0.0.1:6379/0")
	v.SetDefault("redis_queue_prefix", "visitor_rows")
	v.SetDefault("max_body_bytes", 1<<20)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	timeout := 10 * time.Second
	if raw := strings.TrimSpace(v.GetString("request_timeout")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			timeout = parsed
		}
	}

	sinkBackend := strings.ToLower(strings.TrimSpace(v.GetString("sink_backend")))
	switch sinkBackend {
	case SinkMongo, SinkRedis, SinkPostgres:
	default:
		return Config{}, fmt.Errorf("unsupported SINK_BACKEND %q (expected mongo, redis or postgres)", sinkBackend)
	}

	postgresDSN := strings.TrimSpace(v.GetString("postgres_dsn"))
	if sinkBackend == SinkPostgres && postgresDSN == "" {
		return Config{}, errors.New("POSTGRES_DSN must be configured for the postgres sink")
	}

	basicUser := strings.TrimSpace(v.GetString("basic_auth_user"))
	basicPass := v.GetString("basic_auth_pass")
	if (basicUser == "") != (basicPass == "") {
		return Config{}, errors.New("BASIC_AUTH_USER and BASIC_AUTH_PASS must be set together")
	}

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(v.GetString("auth_jwt_secret")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: strings.TrimSpace(v.GetString("auth_jwt_issuer")),
			Secret: []byte(secret),
		})
	}

	if basicUser == "" && len(jwtConfigs) == 0 {
		return Config{}, errors.New("webhook credentials not configured: set BASIC_AUTH_USER/BASIC_AUTH_PASS or AUTH_JWT_SECRET")
	}

	destinations := domain.DefaultDestinations()
	if v.IsSet("destinations") {
		var configured []domain.Destination
		if err := v.UnmarshalKey("destinations", &configured); err != nil {
			return Config{}, fmt.Errorf("failed to parse destinations: %w", err)
		}
		destinations = configured
	}
	catalog, err := domain.NewCatalog(destinations)
	if err != nil {
		return Config{}, fmt.Errorf("invalid destinations: %w", err)
	}
	destinations = catalog.Destinations()

	maxBody := v.GetInt64("max_body_bytes")
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	return Config{
		Addr:                   v.GetString("http_addr"),
		Timeout:                timeout,
		ServerLog:              log.New(os.Stdout, "[visitor-webhook] ", log.LstdFlags|log.Lshortfile),
		BasicAuthUser:          basicUser,
		BasicAuthPass:          basicPass,
		JWTConfigs:             jwtConfigs,
		JWTAudience:            strings.TrimSpace(v.GetString("auth_jwt_audience")),
		SinkBackend:            sinkBackend,
		MongoURI:               v.GetString("mongo_uri"),
		MongoDatabase:          v.GetString("mongo_db"),
		FailedInsertCollection: v.GetString("failed_insert_collection"),
		RedisURL:               v.GetString("redis_url"),
		RedisQueuePrefix:       v.GetString("redis_queue_prefix"),
		PostgresDSN:            postgresDSN,
		MaxBodyBytes:           maxBody,
		Destinations:           destinations,
	}, nil
}
