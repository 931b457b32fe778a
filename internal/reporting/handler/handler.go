// Package handler exposes the operational metrics summary over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealdesk/internal/platform/httputil"
	"dealdesk/internal/reporting"
	"dealdesk/pkg/requestcontext"
)

// Service defines the reporting operation the HTTP layer depends on.
type Service interface {
	Summarize(ctx context.Context) (reporting.Summary, error)
}

// Handler wires the metrics summary endpoint to the reporting service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a reporting handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the metrics summary endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/metrics", h.HandleSummary)
}

// HandleSummary handles GET /metrics.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.service.Summarize(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "metrics summary failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
