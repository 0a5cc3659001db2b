package webhook

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ps1339880-hash/webhook-visitor/internal/interfaces/http/common"
	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// visitorHandler accepts a sign-in webhook in JSON or form encoding and stores its rows.
func (h *Handler) visitorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.WriteError(h.logger, w, http.StatusRequestEntityTooLarge, fmt.Sprintf("リクエストボディが大きすぎます (上限 %d bytes)", tooLarge.Limit))
				return
			}
			common.WriteError(h.logger, w, http.StatusBadRequest, "リクエストボディの読み込みに失敗しました")
			return
		}

		summary, err := h.ingest.Ingest(r.Context(), intakeapp.IngestRequest{
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})

		var decodeErr *domain.DecodeError
		var sinkErr *domain.SinkError
		switch {
		case err == nil:
			common.WriteJSON(h.logger, w, http.StatusOK, summary)
		case errors.As(err, &decodeErr):
			h.logf("webhook ペイロードの解析に失敗: %v", decodeErr)
			common.WriteJSON(h.logger, w, http.StatusBadRequest, decodeErrorResponse{
				Error:   decodeErr.Error(),
				Snippet: decodeErr.Snippet,
			})
		case errors.As(err, &sinkErr):
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, newSinkErrorResponse(summary, sinkErr))
		default:
			h.logf("webhook の処理に失敗: %v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "webhook の処理に失敗しました")
		}
	}
}

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := common.PrincipalFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status":    "ok",
			"principal": principal,
		})
	}
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
