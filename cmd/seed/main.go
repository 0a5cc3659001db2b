package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/ps1339880-hash/webhook-visitor/internal/config"
	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
	"github.com/ps1339880-hash/webhook-visitor/internal/server"
)

type seedOptions struct {
	visitCount int
	formRatio  float64
	randomSeed int64
	dryRun     bool
}

// seed は架空の来訪 webhook を生成し、本番と同じ取り込み経路で設定済みのシンクへ投入する。
func main() {
	opts := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := run(ctx, opts, log.Default(), config.Load); err != nil {
		log.Fatal(err)
	}
}

// run は dry-run では設定を読まずにペイロードだけを出力する。
func run(ctx context.Context, opts seedOptions, logger *log.Logger, loadConfig func() config.Config) error {
	rng := rand.New(rand.NewSource(opts.randomSeed))
	requests := generateRequests(rng, opts.visitCount, opts.formRatio, time.Now())

	if opts.dryRun {
		for _, req := range requests {
			logger.Printf("%s %s", req.ContentType, req.Body)
		}
		return nil
	}

	cfg := loadConfig()
	backend, err := server.OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("シンクの初期化に失敗しました: %w", err)
	}
	defer func() {
		_ = backend.Close(context.Background())
	}()

	catalog, err := domain.NewCatalog(cfg.Destinations)
	if err != nil {
		return fmt.Errorf("宛先設定が不正です: %w", err)
	}
	ingest := intakeapp.NewIngestService(intakeapp.ServiceConfig{
		Catalog:  catalog,
		Sink:     backend.Sink,
		Failures: backend.Failures,
		Logger:   cfg.ServerLog,
	})

	var rows, skipped, failed int
	for _, req := range requests {
		summary, err := ingest.Ingest(ctx, req)
		if err != nil {
			failed++
			logger.Printf("投入に失敗: ingest=%s err=%v", summary.IngestID, err)
		}
		rows += summary.RowsInserted
		skipped += summary.Skipped
	}

	logger.Printf("Seed 完了: visits=%d rows=%d skipped=%d failed=%d sink=%s",
		len(requests), rows, skipped, failed, backend.Name)
	return nil
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.IntVar(&opts.visitCount, "visits", 20, "生成する来訪数")
	flag.Float64Var(&opts.formRatio, "form-ratio", 0.3, "フォームエンコードで送る割合 (0-1)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "シンクへ送らずペイロードを表示する")
	defaultSeed := time.Now().UnixNano()
	flag.Int64Var(&opts.randomSeed, "seed", defaultSeed, "乱数シード（再現用）")
	flag.Parse()

	if opts.visitCount <= 0 {
		log.Fatal("visits は 1 以上を指定してください")
	}
	if opts.formRatio < 0 {
		opts.formRatio = 0
	}
	if opts.formRatio > 1 {
		opts.formRatio = 1
	}
	return opts
}
