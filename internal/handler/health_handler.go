package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"openlingua/internal/model"
)

const apiVersion = "1.0.0"

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.InfoResponse{
		Message:   "OpenLingua API is running!",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Version:   apiVersion,
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Health(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, model.HealthResponse{
				Status:    "DEGRADED",
				Message:   "Database unavailable",
				Timestamp: now,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "OK",
		Message:   "Server is healthy",
		Timestamp: now,
	})
}

func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "Route not found"})
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{Error: "Method not allowed"})
}
