package common

import (
	json "github.com/goccy/go-json"
	"log"
	"net/http"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *log.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Printf("JSON エンコードに失敗: %v", err)
	}
}

// WriteError writes {"error": message}.
func WriteError(logger *log.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, map[string]string{"error": message})
}
