package deal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dealdesk/internal/advisory"
	"dealdesk/internal/deal/metrics"
	"dealdesk/internal/intake"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
	dErrors "dealdesk/pkg/domain-errors"
	"dealdesk/pkg/requestcontext"
)

// ValidOverrideReasons are the accepted values for an override request.
var ValidOverrideReasons = []string{
	"Strategic deal",
	"Pre-approved by VP",
	"Customer relationship",
	"Competitive pressure",
	"One-time exception",
	"Other",
}

// PipelineResult is the full output of processing one deal: the validated
// record, its routing decision, and the clause advisory when a clause was
// submitted.
type PipelineResult struct {
	Deal     intake.ValidatedDeal     `json:"deal"`
	Decision routing.Decision         `json:"decision"`
	Advisory *advisory.ClauseAdvisory `json:"advisory,omitempty"`
}

// Service orchestrates the intake-to-decision pipeline and deal overrides.
// The evaluation and routing cores it calls are pure; all state lives behind
// the Store.
type Service struct {
	store    Store
	cfg      rules.Config
	analyzer advisory.Analyzer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewService creates a deal service.
func NewService(store Store, cfg rules.Config, analyzer advisory.Analyzer, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, cfg: cfg, analyzer: analyzer, logger: logger, metrics: m}
}

// Process runs the full pipeline: validate, evaluate, route, optionally
// analyze the clause, then persist. The advisory is strictly informational
// and never changes the decision.
func (s *Service) Process(ctx context.Context, in intake.DealInput) (PipelineResult, error) {
	start := time.Now()

	deal, err := intake.NewValidatedDeal(in, requestcontext.Now(ctx))
	if err != nil {
		return PipelineResult{}, err
	}

	evaluation := rules.Evaluate(deal, s.cfg)
	decision := routing.Route(evaluation, s.cfg)

	var adv *advisory.ClauseAdvisory
	if deal.ClauseText != "" {
		a := s.analyzer.Analyze(ctx, deal.ClauseText)
		adv = &a
	}

	if err := s.store.Insert(ctx, deal); err != nil {
		return PipelineResult{}, fmt.Errorf("persist deal: %w", err)
	}
	if err := s.store.AttachDecision(ctx, deal.ID, evaluation, decision, adv); err != nil {
		return PipelineResult{}, fmt.Errorf("persist decision: %w", err)
	}

	s.metrics.RecordDecision(string(decision.ApprovalStatus), string(decision.Priority))
	s.metrics.ObservePipeline(time.Since(start))
	s.logger.InfoContext(ctx, "deal processed",
		"deal_id", deal.ID,
		"approval_status", decision.ApprovalStatus,
		"priority", decision.Priority,
		"total_weight", decision.TotalWeight,
		"advisory_attached", adv != nil,
	)

	return PipelineResult{Deal: deal, Decision: decision, Advisory: adv}, nil
}

// Validate runs intake validation only. Nothing is persisted.
func (s *Service) Validate(ctx context.Context, in intake.DealInput) (intake.ValidatedDeal, error) {
	return intake.NewValidatedDeal(in, requestcontext.Now(ctx))
}

// Evaluate validates a deal and evaluates it against the rule set.
// Nothing is persisted.
func (s *Service) Evaluate(ctx context.Context, in intake.DealInput) (rules.EvaluationResult, error) {
	deal, err := intake.NewValidatedDeal(in, requestcontext.Now(ctx))
	if err != nil {
		return rules.EvaluationResult{}, err
	}
	return rules.Evaluate(deal, s.cfg), nil
}

// Route validates, evaluates, and routes a deal. Nothing is persisted.
func (s *Service) Route(ctx context.Context, in intake.DealInput) (routing.Decision, error) {
	evaluation, err := s.Evaluate(ctx, in)
	if err != nil {
		return routing.Decision{}, err
	}
	return routing.Route(evaluation, s.cfg), nil
}

// Override records a human override of an escalated decision. Only processed,
// escalated deals can be overridden; the original decision is snapshotted.
func (s *Service) Override(ctx context.Context, dealID, reason, notes, overriddenBy string) (Override, error) {
	if !validOverrideReason(reason) {
		return Override{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("override_reason %q is not one of %v", reason, ValidOverrideReasons))
	}

	rec, err := s.store.Get(ctx, dealID)
	if errors.Is(err, ErrNotFound) {
		return Override{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("deal %s not found", dealID))
	}
	if err != nil {
		return Override{}, fmt.Errorf("load deal: %w", err)
	}
	if rec.Decision == nil {
		return Override{}, dErrors.New(dErrors.CodeBadRequest, "deal has not been processed yet")
	}
	if rec.Decision.AutoApproved {
		return Override{}, dErrors.New(dErrors.CodeBadRequest, "cannot override an auto-approved deal")
	}

	if overriddenBy == "" {
		overriddenBy = "approver"
	}
	ov := Override{
		DealID:           dealID,
		Reason:           reason,
		Notes:            notes,
		OverriddenBy:     overriddenBy,
		CreatedAt:        requestcontext.Now(ctx).UTC(),
		OriginalDecision: *rec.Decision,
	}
	id, err := s.store.RecordOverride(ctx, ov)
	if err != nil {
		return Override{}, fmt.Errorf("record override: %w", err)
	}
	ov.ID = id

	s.metrics.RecordOverride(reason)
	s.logger.InfoContext(ctx, "deal overridden",
		"deal_id", dealID,
		"override_id", id,
		"reason", reason,
		"overridden_by", overriddenBy,
	)
	return ov, nil
}

// GetDeal fetches one stored deal by id.
func (s *Service) GetDeal(ctx context.Context, dealID string) (*Record, error) {
	rec, err := s.store.Get(ctx, dealID)
	if errors.Is(err, ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("deal %s not found", dealID))
	}
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}
	return rec, nil
}

// ListDeals returns all stored deals, newest first.
func (s *Service) ListDeals(ctx context.Context) ([]Record, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	return recs, nil
}

// AnalyzeClause runs the advisory analyzer against a standalone clause.
func (s *Service) AnalyzeClause(ctx context.Context, clauseText string) advisory.ClauseAdvisory {
	return s.analyzer.Analyze(ctx, clauseText)
}

func validOverrideReason(reason string) bool {
	for _, r := range ValidOverrideReasons {
		if r == reason {
			return true
		}
	}
	return false
}
