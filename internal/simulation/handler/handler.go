// Package handler exposes policy simulation over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dealdesk/internal/platform/httputil"
	"dealdesk/internal/simulation"
	"dealdesk/pkg/requestcontext"
)

// Service defines the simulation operation the HTTP layer depends on.
type Service interface {
	Run(ctx context.Context, in simulation.Input) (simulation.Result, error)
}

// Handler wires the simulation endpoint to the simulation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a simulation handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the simulation endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/simulate", h.HandleSimulate)
}

// HandleSimulate handles POST /simulate.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[simulation.Input](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Run(ctx, *req)
	if err != nil {
		h.logger.ErrorContext(ctx, "simulation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "simulation served",
		"request_id", requestID,
		"total_deals", result.Original.TotalDeals,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
