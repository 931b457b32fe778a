// Package handler exposes demo data seeding over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealdesk/internal/platform/httputil"
	dErrors "dealdesk/pkg/domain-errors"
	"dealdesk/pkg/requestcontext"
)

// Service defines the seeding operations the HTTP layer depends on.
type Service interface {
	Seed(ctx context.Context, count int, autoProcess bool) ([]string, error)
	ResetAndSeed(ctx context.Context, count int) ([]string, error)
}

// SeedRequest is the body for POST /seed and POST /seed/reset.
type SeedRequest struct {
	Count       int   `json:"count"`
	AutoProcess *bool `json:"auto_process,omitempty"`
}

// Validate applies the count default and bounds.
func (r *SeedRequest) Validate() error {
	if r.Count == 0 {
		r.Count = 50
	}
	if r.Count < 1 || r.Count > 500 {
		return dErrors.New(dErrors.CodeValidation, "count must be between 1 and 500")
	}
	return nil
}

func (r *SeedRequest) autoProcess() bool {
	if r.AutoProcess == nil {
		return true
	}
	return *r.AutoProcess
}

// SeedResponse reports the generated deal ids.
type SeedResponse struct {
	Generated int      `json:"generated"`
	DealIDs   []string `json:"deal_ids"`
}

// Handler wires seeding endpoints to the seed service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a seed handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts seeding endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/seed", h.HandleSeed)
	r.Post("/seed/reset", h.HandleReset)
}

// HandleSeed handles POST /seed.
func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SeedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ids, err := h.service.Seed(ctx, req.Count, req.autoProcess())
	if err != nil {
		h.logger.ErrorContext(ctx, "seeding failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SeedResponse{Generated: len(ids), DealIDs: ids})
}

// HandleReset handles POST /seed/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SeedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ids, err := h.service.ResetAndSeed(ctx, req.Count)
	if err != nil {
		h.logger.ErrorContext(ctx, "reset and seed failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SeedResponse{Generated: len(ids), DealIDs: ids})
}
