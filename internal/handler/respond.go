package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/JustIkra/tg-restorants-bot/internal/backend"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeBackendError maps a failed backend call onto the gateway response.
// The backend's own 4xx detail is passed through.
func writeBackendError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		status := apiErr.Status
		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest || status == http.StatusConflict {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": apiErr.Detail})
		return
	}
	logger.Error(op, zap.Error(err))
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
}

func int64Param(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
