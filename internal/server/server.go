package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ps1339880-hash/webhook-visitor/internal/config"
	commonhttp "github.com/ps1339880-hash/webhook-visitor/internal/interfaces/http/common"
	webhookhttp "github.com/ps1339880-hash/webhook-visitor/internal/interfaces/http/webhook"
	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// Server は HTTP サーバーのライフサイクルを管理し、webhook ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger       *log.Logger
	backend      Backend
	ingest       intakeapp.IngestService
	basicUser    string
	basicPass    string
	jwtConfigs   []config.JWTConfig
	jwtAudience  string
	maxBodyBytes int64
	timeout      time.Duration
	addr         string
	clock        func() time.Time
}

// New は Config と Backend を受け取り、取り込みサービスを組み立てた Server を返す。
func New(cfg config.Config, backend Backend) (*Server, error) {
	catalog, err := domain.NewCatalog(cfg.Destinations)
	if err != nil {
		return nil, err
	}

	logger := cfg.ServerLog
	if logger == nil {
		logger = log.New(os.Stdout, "[visitor-webhook] ", log.LstdFlags|log.Lshortfile)
	}

	srv := &Server{
		logger:       logger,
		backend:      backend,
		basicUser:    cfg.BasicAuthUser,
		basicPass:    cfg.BasicAuthPass,
		jwtConfigs:   append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:  cfg.JWTAudience,
		maxBodyBytes: cfg.MaxBodyBytes,
		timeout:      cfg.Timeout,
		addr:         cfg.Addr,
		clock:        time.Now,
	}
	srv.ingest = intakeapp.NewIngestService(intakeapp.ServiceConfig{
		Catalog:  catalog,
		Sink:     backend.Sink,
		Failures: backend.Failures,
		Logger:   logger,
	})
	return srv, nil
}

// Router はミドルウェアとルーティングを組み立てた http.Handler を返す。
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if s.timeout > 0 {
		router.Use(middleware.Timeout(s.timeout))
	}

	router.Get("/healthz", s.healthHandler())

	webhookHandler := webhookhttp.NewHandler(webhookhttp.Config{
		Logger:       s.logger,
		Ingest:       s.ingest,
		MaxBodyBytes: s.maxBodyBytes,
	})
	webhookHandler.Register(router, s.authMiddleware)

	return router
}

// Run は HTTP サーバーを起動し、シグナル受信まで待機する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: addr=%s sink=%s", s.addr, s.backend.Name)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// healthHandler はシンクへの疎通確認のみを返す。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.backend.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := s.backend.Ping(ctx); err != nil {
				commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"sink":   s.backend.Name,
					"error":  err.Error(),
				})
				return
			}
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"sink":   s.backend.Name,
			"time":   s.clock().Format(time.RFC3339),
		})
	}
}

// shutdown はシンクの接続をタイムアウト付きで閉じる。
func (s *Server) shutdown(ctx context.Context) {
	if s.backend.Close == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.backend.Close(shutdownCtx); err != nil {
		s.logger.Printf("シンク切断時にエラー: %v", err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を行う。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	defer srv.shutdown(context.Background())

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}
	return nil
}
