// Package deal owns deal persistence and the intake-to-decision pipeline
// orchestration. The evaluation and routing cores stay pure; this package is
// where their outputs meet storage.
package deal

import (
	"context"
	"errors"
	"time"

	"dealdesk/internal/advisory"
	"dealdesk/internal/intake"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
)

// ErrNotFound is returned by stores when no deal matches the given id.
var ErrNotFound = errors.New("deal not found")

// Status tracks a deal's position in its lifecycle.
type Status string

const (
	StatusValidated  Status = "validated"
	StatusProcessed  Status = "processed"
	StatusOverridden Status = "overridden"
)

// Record is a stored deal plus whatever the pipeline has attached so far.
// Evaluation, Decision, and Advisory are nil until the deal is processed.
type Record struct {
	Deal       intake.ValidatedDeal     `json:"deal"`
	Status     Status                   `json:"status"`
	Evaluation *rules.EvaluationResult  `json:"evaluation,omitempty"`
	Decision   *routing.Decision        `json:"decision,omitempty"`
	Advisory   *advisory.ClauseAdvisory `json:"advisory,omitempty"`
}

// Override records a human approver overriding an escalated decision. The
// original decision is snapshotted so reporting can attribute the override
// to the teams that were bypassed.
type Override struct {
	ID               int64            `json:"override_id"`
	DealID           string           `json:"deal_id"`
	Reason           string           `json:"override_reason"`
	Notes            string           `json:"override_notes,omitempty"`
	OverriddenBy     string           `json:"overridden_by"`
	CreatedAt        time.Time        `json:"created_at"`
	OriginalDecision routing.Decision `json:"original_decision"`
}

// Store is the persistence boundary for deals and overrides. Both the
// in-memory and the PostgreSQL implementations satisfy it; services depend
// only on this interface.
type Store interface {
	// Insert stores a freshly validated deal with StatusValidated.
	Insert(ctx context.Context, deal intake.ValidatedDeal) error

	// Get fetches one deal by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, dealID string) (*Record, error)

	// List returns all deals, newest first.
	List(ctx context.Context) ([]Record, error)

	// ListProcessed returns deals with StatusProcessed, newest first.
	ListProcessed(ctx context.Context) ([]Record, error)

	// AttachDecision stores the pipeline outputs and moves the deal to
	// StatusProcessed. The advisory may be nil.
	AttachDecision(ctx context.Context, dealID string, evaluation rules.EvaluationResult, decision routing.Decision, adv *advisory.ClauseAdvisory) error

	// RecordOverride stores an override, moves the deal to StatusOverridden,
	// and returns the override id.
	RecordOverride(ctx context.Context, ov Override) (int64, error)

	// Overrides returns all overrides, newest first.
	Overrides(ctx context.Context) ([]Override, error)

	// OverridesForDeal returns the overrides recorded against one deal,
	// newest first.
	OverridesForDeal(ctx context.Context, dealID string) ([]Override, error)

	// Reset deletes all overrides and deals. Used by demo seeding only.
	Reset(ctx context.Context) error
}
