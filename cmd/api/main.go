package main

import (
	"context"
	"log"

	"github.com/ps1339880-hash/webhook-visitor/internal/config"
	"github.com/ps1339880-hash/webhook-visitor/internal/server"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	backend, err := server.OpenBackend(ctx, cfg)
	if err != nil {
		cfg.ServerLog.Fatalf("シンクの初期化に失敗しました: %v", err)
	}

	app, err := server.New(cfg, backend)
	if err != nil {
		cfg.ServerLog.Fatalf("サーバーの初期化に失敗しました: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Fatalf("サーバー起動に失敗: %v", err)
	}
}
