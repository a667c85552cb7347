package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/markdave123-py/Mosaic/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response failed", "error", err)
	}
}
