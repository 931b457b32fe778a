package handler

import (
	"fmt"

	"dealdesk/internal/deal"
	dErrors "dealdesk/pkg/domain-errors"
)

// OverrideRequest is the body for POST /deals/{id}/override.
type OverrideRequest struct {
	OverrideReason string `json:"override_reason"`
	OverrideNotes  string `json:"override_notes,omitempty"`
	OverriddenBy   string `json:"overridden_by,omitempty"`
}

// Validate checks the override reason against the accepted list.
func (r *OverrideRequest) Validate() error {
	if r.OverrideReason == "" {
		return dErrors.New(dErrors.CodeValidation, "override_reason is required")
	}
	for _, valid := range deal.ValidOverrideReasons {
		if r.OverrideReason == valid {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("override_reason %q is not one of %v", r.OverrideReason, deal.ValidOverrideReasons))
}

// ClauseRequest is the body for POST /deals/analyze-clause.
type ClauseRequest struct {
	ClauseText string `json:"clause_text"`
}

// Validate requires a non-empty clause.
func (r *ClauseRequest) Validate() error {
	if r.ClauseText == "" {
		return dErrors.New(dErrors.CodeValidation, "clause_text is required")
	}
	return nil
}
