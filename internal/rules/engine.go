package rules

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dealdesk/internal/intake"
)

// RuleID is the stable identifier of one approval rule.
type RuleID string

const (
	RuleDiscountThreshold    RuleID = "DISCOUNT_THRESHOLD"
	RuleACVExecThreshold     RuleID = "ACV_EXEC_THRESHOLD"
	RuleEULegalReview        RuleID = "EU_LEGAL_REVIEW"
	RulePaymentTermsLimit    RuleID = "PAYMENT_TERMS_LIMIT"
	RuleCustomSecurityClause RuleID = "CUSTOM_SECURITY_CLAUSE"
)

// Review team names used as rule owners and escalation targets.
const (
	TeamFinance  = "Finance"
	TeamLegal    = "Legal"
	TeamSecurity = "Security"
	TeamExec     = "Exec"
)

// Priority tiers, highest first. PriorityNone means no rule weight accrued.
const (
	PriorityP1   = "P1"
	PriorityP2   = "P2"
	PriorityP3   = "P3"
	PriorityNone = "None"
)

// RuleTrigger records the outcome of evaluating one rule against one deal:
// whether it fired, who owns it, why, and its weight contribution.
type RuleTrigger struct {
	RuleID    RuleID `json:"rule_id"`
	Triggered bool   `json:"triggered"`
	Owner     string `json:"owner"`
	Reason    string `json:"reason"`
	Weight    int    `json:"weight"`
}

// EvaluationResult aggregates all rule triggers for a deal. Triggers always
// holds exactly the five rules in their fixed evaluation order; consumers
// rely on positional stability.
type EvaluationResult struct {
	DealID      string        `json:"deal_id"`
	Triggers    []RuleTrigger `json:"triggers"`
	TotalWeight int           `json:"total_weight"`
	Priority    string        `json:"priority"`
}

// rule binds an identifier, its owning team, and its predicate in one place,
// so the rule set is a fixed, statically enumerable list.
type rule struct {
	id    RuleID
	owner string
	eval  func(deal intake.ValidatedDeal, t Thresholds) (triggered bool, reason string)
}

var acvPrinter = message.NewPrinter(language.English)

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ruleSet is the complete rule catalogue in evaluation order. The order is
// part of the contract: EvaluationResult.Triggers is always index-aligned
// with this table.
var ruleSet = [5]rule{
	{
		id:    RuleDiscountThreshold,
		owner: TeamFinance,
		eval: func(deal intake.ValidatedDeal, t Thresholds) (bool, string) {
			if deal.DiscountPercentage > t.DiscountThreshold {
				return true, fmt.Sprintf("Discount %s%% exceeds threshold %s%%",
					formatPercent(deal.DiscountPercentage), formatPercent(t.DiscountThreshold))
			}
			return false, "Discount within threshold"
		},
	},
	{
		id:    RuleACVExecThreshold,
		owner: TeamExec,
		eval: func(deal intake.ValidatedDeal, t Thresholds) (bool, string) {
			if deal.AnnualContractValue > t.ACVExecThreshold {
				return true, acvPrinter.Sprintf("ACV $%.0f exceeds threshold $%.0f",
					deal.AnnualContractValue, t.ACVExecThreshold)
			}
			return false, "ACV within threshold"
		},
	},
	{
		id:    RuleEULegalReview,
		owner: TeamLegal,
		eval: func(deal intake.ValidatedDeal, t Thresholds) (bool, string) {
			if deal.Region == intake.RegionEU && t.EURequiresLegal {
				return true, "EU region requires legal review"
			}
			return false, "Region does not require legal review"
		},
	},
	{
		id:    RulePaymentTermsLimit,
		owner: TeamFinance,
		eval: func(deal intake.ValidatedDeal, t Thresholds) (bool, string) {
			if deal.PaymentTermsDays > t.PaymentTermsLimit {
				return true, fmt.Sprintf("Payment terms %d days exceeds limit of %d days",
					deal.PaymentTermsDays, t.PaymentTermsLimit)
			}
			return false, "Payment terms within limit"
		},
	},
	{
		id:    RuleCustomSecurityClause,
		owner: TeamSecurity,
		eval: func(deal intake.ValidatedDeal, _ Thresholds) (bool, string) {
			if deal.CustomSecurityClause {
				return true, "Custom security clause requires review"
			}
			return false, "No custom security clause"
		},
	},
}

// Evaluate runs every rule against the deal using the config's resolved
// thresholds. Pure: no I/O, no mutation of either argument, deterministic,
// safe to call concurrently. Misconfiguration (inverted cutoffs, negative
// weights) produces non-sensical but non-crashing output by design.
func Evaluate(deal intake.ValidatedDeal, cfg Config) EvaluationResult {
	thresholds := cfg.ResolveThresholds(deal.CustomerSegment)

	triggers := make([]RuleTrigger, 0, len(ruleSet))
	totalWeight := 0
	for _, r := range ruleSet {
		triggered, reason := r.eval(deal, thresholds)
		weight := 0
		if triggered {
			weight = cfg.RuleWeights[r.id]
		}
		totalWeight += weight
		triggers = append(triggers, RuleTrigger{
			RuleID:    r.id,
			Triggered: triggered,
			Owner:     r.owner,
			Reason:    reason,
			Weight:    weight,
		})
	}

	return EvaluationResult{
		DealID:      deal.ID,
		Triggers:    triggers,
		TotalWeight: totalWeight,
		Priority:    ComputePriority(totalWeight, cfg.PriorityCutoffs),
	}
}

// ComputePriority maps a total triggered weight to a tier by scanning the
// cutoffs in descending order. Cutoffs are assumed descending (P1 >= P2 >=
// P3); inverted configuration is not corrected here.
func ComputePriority(totalWeight int, cutoffs PriorityCutoffs) string {
	switch {
	case totalWeight >= cutoffs.P1:
		return PriorityP1
	case totalWeight >= cutoffs.P2:
		return PriorityP2
	case totalWeight >= cutoffs.P3:
		return PriorityP3
	default:
		return PriorityNone
	}
}

// WithRulesDisabled returns a copy of the result with the given rules zeroed
// out (triggered=false, weight=0), the total weight re-summed, and the
// priority recomputed against the supplied cutoffs. The receiver is never
// modified, preserving the engine's purity guarantees for simulation.
func (e EvaluationResult) WithRulesDisabled(disabled map[RuleID]bool, cutoffs PriorityCutoffs) EvaluationResult {
	out := e
	out.Triggers = make([]RuleTrigger, len(e.Triggers))
	copy(out.Triggers, e.Triggers)

	total := 0
	for i := range out.Triggers {
		if disabled[out.Triggers[i].RuleID] {
			out.Triggers[i].Triggered = false
			out.Triggers[i].Weight = 0
		}
		total += out.Triggers[i].Weight
	}
	out.TotalWeight = total
	out.Priority = ComputePriority(total, cutoffs)
	return out
}
