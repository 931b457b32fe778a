// Package handler exposes the deal pipeline over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dealdesk/internal/advisory"
	"dealdesk/internal/deal"
	"dealdesk/internal/intake"
	"dealdesk/internal/platform/httputil"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
	"dealdesk/pkg/requestcontext"
)

// Service defines the deal operations the HTTP layer depends on.
type Service interface {
	Process(ctx context.Context, in intake.DealInput) (deal.PipelineResult, error)
	Validate(ctx context.Context, in intake.DealInput) (intake.ValidatedDeal, error)
	Evaluate(ctx context.Context, in intake.DealInput) (rules.EvaluationResult, error)
	Route(ctx context.Context, in intake.DealInput) (routing.Decision, error)
	Override(ctx context.Context, dealID, reason, notes, overriddenBy string) (deal.Override, error)
	GetDeal(ctx context.Context, dealID string) (*deal.Record, error)
	ListDeals(ctx context.Context) ([]deal.Record, error)
	AnalyzeClause(ctx context.Context, clauseText string) advisory.ClauseAdvisory
}

// Handler wires deal endpoints to the deal service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a deal handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts deal endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/deals", h.HandleProcess)
	r.Post("/deals/validate", h.HandleValidate)
	r.Post("/deals/evaluate", h.HandleEvaluate)
	r.Post("/deals/route", h.HandleRoute)
	r.Post("/deals/analyze-clause", h.HandleAnalyzeClause)
	r.Post("/deals/{dealID}/override", h.HandleOverride)
	r.Get("/deals/list", h.HandleList)
	r.Get("/deals/{dealID}", h.HandleGet)
}

// HandleProcess handles POST /deals: the full pipeline with persistence.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[intake.DealInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Process(ctx, *req)
	if err != nil {
		h.logger.ErrorContext(ctx, "deal processing failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "pipeline completed",
		"request_id", requestID,
		"deal_id", result.Deal.ID,
		"approval_status", result.Decision.ApprovalStatus,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleValidate handles POST /deals/validate: intake validation only.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[intake.DealInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	validated, err := h.service.Validate(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, validated)
}

// HandleEvaluate handles POST /deals/evaluate: stateless rule evaluation.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[intake.DealInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	evaluation, err := h.service.Evaluate(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, evaluation)
}

// HandleRoute handles POST /deals/route: stateless validate+evaluate+route.
func (h *Handler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[intake.DealInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.Route(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleAnalyzeClause handles POST /deals/analyze-clause. The advisory is
// informational only; it never touches routing.
func (h *Handler) HandleAnalyzeClause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ClauseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	adv := h.service.AnalyzeClause(ctx, req.ClauseText)
	httputil.WriteJSON(w, http.StatusOK, adv)
}

// HandleOverride handles POST /deals/{dealID}/override.
func (h *Handler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	dealID := chi.URLParam(r, "dealID")

	req, ok := httputil.DecodeAndPrepare[OverrideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ov, err := h.service.Override(ctx, dealID, req.OverrideReason, req.OverrideNotes, req.OverriddenBy)
	if err != nil {
		h.logger.WarnContext(ctx, "override rejected",
			"request_id", requestID,
			"deal_id", dealID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromOverride(ov))
}

// HandleGet handles GET /deals/{dealID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dealID := chi.URLParam(r, "dealID")

	rec, err := h.service.GetDeal(ctx, dealID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleList handles GET /deals/list.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recs, err := h.service.ListDeals(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []deal.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Total: len(recs), Deals: recs})
}
