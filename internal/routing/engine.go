// Package routing converts rule-evaluation output into a final approval
// decision: auto-approve, or escalate to a deduplicated, policy-ordered list
// of review teams.
package routing

import (
	"sort"

	"dealdesk/internal/rules"
)

// Approval statuses carried on a Decision.
const (
	StatusAutoApproved = "Auto-Approved"
	StatusEscalated    = "Escalated"
)

// Decision is the final routing outcome for one deal. RuleTriggers is a copy
// of the evaluation's triggers kept for auditability.
type Decision struct {
	DealID         string              `json:"deal_id"`
	ApprovalStatus string              `json:"approval_status"`
	EscalationPath []string            `json:"escalation_path"`
	RuleTriggers   []rules.RuleTrigger `json:"rule_triggers"`
	AutoApproved   bool                `json:"auto_approved"`
	Priority       string              `json:"priority"`
	TotalWeight    int                 `json:"total_weight"`
}

// Route derives the decision from an evaluation. Pure and deterministic; the
// evaluation is never mutated. Priority and total weight pass through even
// when nothing fired, so a simulation that disables rules still sees the
// tier implied by the remaining triggers.
func Route(evaluation rules.EvaluationResult, cfg rules.Config) Decision {
	triggersCopy := make([]rules.RuleTrigger, len(evaluation.Triggers))
	copy(triggersCopy, evaluation.Triggers)

	var fired []rules.RuleTrigger
	for _, t := range evaluation.Triggers {
		if t.Triggered {
			fired = append(fired, t)
		}
	}

	if len(fired) == 0 {
		return Decision{
			DealID:         evaluation.DealID,
			ApprovalStatus: StatusAutoApproved,
			EscalationPath: []string{},
			RuleTriggers:   triggersCopy,
			AutoApproved:   true,
			Priority:       evaluation.Priority,
			TotalWeight:    evaluation.TotalWeight,
		}
	}

	// Dedupe owners preserving first-occurrence order among fired triggers,
	// then sort by the configured escalation order. Owners missing from the
	// order all share the sort key len(order): the stable sort keeps their
	// relative first-occurrence order while placing them after every known
	// team.
	seen := make(map[string]struct{}, len(fired))
	owners := make([]string, 0, len(fired))
	for _, t := range fired {
		if _, ok := seen[t.Owner]; !ok {
			seen[t.Owner] = struct{}{}
			owners = append(owners, t.Owner)
		}
	}

	orderIndex := make(map[string]int, len(cfg.EscalationOrder))
	for i, team := range cfg.EscalationOrder {
		orderIndex[team] = i
	}
	rank := func(team string) int {
		if i, ok := orderIndex[team]; ok {
			return i
		}
		return len(cfg.EscalationOrder)
	}
	sort.SliceStable(owners, func(i, j int) bool {
		return rank(owners[i]) < rank(owners[j])
	})

	return Decision{
		DealID:         evaluation.DealID,
		ApprovalStatus: StatusEscalated,
		EscalationPath: owners,
		RuleTriggers:   triggersCopy,
		AutoApproved:   false,
		Priority:       evaluation.Priority,
		TotalWeight:    evaluation.TotalWeight,
	}
}
