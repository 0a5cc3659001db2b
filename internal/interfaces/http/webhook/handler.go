package webhook

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ps1339880-hash/webhook-visitor/internal/interfaces/http/common"
	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

// Handler wires the webhook endpoints to the ingest service.
type Handler struct {
	logger       *log.Logger
	ingest       intakeapp.IngestService
	maxBodyBytes int64
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger       *log.Logger
	Ingest       intakeapp.IngestService
	MaxBodyBytes int64
}

// NewHandler constructs the webhook handler set.
func NewHandler(cfg Config) *Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = common.MaxWebhookBody
	}
	return &Handler{
		logger:       cfg.Logger,
		ingest:       cfg.Ingest,
		maxBodyBytes: maxBody,
	}
}

// Register mounts the webhook routes onto the router. Every route requires authentication.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Post("/webhook/visitor", h.visitorHandler())
	r.With(authMiddleware).Get("/webhook/auth/verify", h.authVerifyHandler())
}
