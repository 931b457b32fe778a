// Package rules holds the deal-approval policy: threshold configuration with
// per-segment overrides, and the deterministic five-rule evaluation engine.
// Config values are immutable; callers that want a different policy build a
// copy rather than mutating a shared document.
package rules

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"dealdesk/internal/intake"
)

// Thresholds are the numeric limits the rule predicates compare against.
type Thresholds struct {
	DiscountThreshold float64 `json:"discount_threshold" yaml:"discount_threshold"`
	ACVExecThreshold  float64 `json:"acv_exec_threshold" yaml:"acv_exec_threshold"`
	PaymentTermsLimit int     `json:"payment_terms_limit" yaml:"payment_terms_limit"`
	EURequiresLegal   bool    `json:"eu_requires_legal" yaml:"eu_requires_legal"`
}

// DefaultThresholds returns the built-in global limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DiscountThreshold: 20,
		ACVExecThreshold:  150_000,
		PaymentTermsLimit: 45,
		EURequiresLegal:   true,
	}
}

// UnmarshalJSON decodes a possibly-partial thresholds object; absent fields
// keep their built-in defaults rather than zeroing.
func (t *Thresholds) UnmarshalJSON(data []byte) error {
	type alias Thresholds
	a := alias(DefaultThresholds())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Thresholds(a)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for the rules document loader.
func (t *Thresholds) UnmarshalYAML(value *yaml.Node) error {
	type alias Thresholds
	a := alias(DefaultThresholds())
	if err := value.Decode(&a); err != nil {
		return err
	}
	*t = Thresholds(a)
	return nil
}

// ThresholdOverride is a partial Thresholds: nil fields inherit from the
// defaults during resolution, set fields replace them.
type ThresholdOverride struct {
	DiscountThreshold *float64 `json:"discount_threshold,omitempty" yaml:"discount_threshold,omitempty"`
	ACVExecThreshold  *float64 `json:"acv_exec_threshold,omitempty" yaml:"acv_exec_threshold,omitempty"`
	PaymentTermsLimit *int     `json:"payment_terms_limit,omitempty" yaml:"payment_terms_limit,omitempty"`
	EURequiresLegal   *bool    `json:"eu_requires_legal,omitempty" yaml:"eu_requires_legal,omitempty"`
}

// PriorityCutoffs are the minimum total weights for each tier.
// A score >= cutoff assigns that tier, scanned P1 first.
type PriorityCutoffs struct {
	P1 int `json:"P1" yaml:"P1"`
	P2 int `json:"P2" yaml:"P2"`
	P3 int `json:"P3" yaml:"P3"`
}

// DefaultPriorityCutoffs returns the built-in tier boundaries.
func DefaultPriorityCutoffs() PriorityCutoffs {
	return PriorityCutoffs{P1: 5, P2: 3, P3: 1}
}

// UnmarshalJSON decodes possibly-partial cutoffs; absent tiers keep defaults.
func (p *PriorityCutoffs) UnmarshalJSON(data []byte) error {
	type alias PriorityCutoffs
	a := alias(DefaultPriorityCutoffs())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PriorityCutoffs(a)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for the rules document loader.
func (p *PriorityCutoffs) UnmarshalYAML(value *yaml.Node) error {
	type alias PriorityCutoffs
	a := alias(DefaultPriorityCutoffs())
	if err := value.Decode(&a); err != nil {
		return err
	}
	*p = PriorityCutoffs(a)
	return nil
}

// Config is the full policy document: global defaults, per-segment partial
// overrides, escalation-team ordering, per-rule weights, and tier cutoffs.
type Config struct {
	Defaults         Thresholds                   `json:"defaults" yaml:"defaults"`
	SegmentOverrides map[string]ThresholdOverride `json:"segment_overrides" yaml:"segment_overrides"`
	EscalationOrder  []string                     `json:"escalation_order" yaml:"escalation_order"`
	RuleWeights      map[RuleID]int               `json:"rule_weights" yaml:"rule_weights"`
	PriorityCutoffs  PriorityCutoffs              `json:"priority_cutoffs" yaml:"priority_cutoffs"`
}

// Default returns the built-in policy used when no rules document exists.
func Default() Config {
	return Config{
		Defaults:         DefaultThresholds(),
		SegmentOverrides: map[string]ThresholdOverride{},
		EscalationOrder:  []string{TeamFinance, TeamLegal, TeamSecurity, TeamExec},
		RuleWeights: map[RuleID]int{
			RuleDiscountThreshold:   2,
			RuleACVExecThreshold:    3,
			RuleEULegalReview:       2,
			RulePaymentTermsLimit:   1,
			RuleCustomSecurityClause: 3,
		},
		PriorityCutoffs: DefaultPriorityCutoffs(),
	}
}

// ResolveThresholds merges the segment's override onto the defaults: only
// explicitly-set override fields replace defaults, segments without an
// override resolve to the defaults unchanged. Pure — neither the config nor
// the override is mutated.
func (c Config) ResolveThresholds(segment intake.CustomerSegment) Thresholds {
	resolved := c.Defaults
	override, ok := c.SegmentOverrides[string(segment)]
	if !ok {
		return resolved
	}
	if override.DiscountThreshold != nil {
		resolved.DiscountThreshold = *override.DiscountThreshold
	}
	if override.ACVExecThreshold != nil {
		resolved.ACVExecThreshold = *override.ACVExecThreshold
	}
	if override.PaymentTermsLimit != nil {
		resolved.PaymentTermsLimit = *override.PaymentTermsLimit
	}
	if override.EURequiresLegal != nil {
		resolved.EURequiresLegal = *override.EURequiresLegal
	}
	return resolved
}

// Clone returns a deep copy safe to patch without touching the receiver.
func (c Config) Clone() Config {
	out := c
	out.SegmentOverrides = make(map[string]ThresholdOverride, len(c.SegmentOverrides))
	for seg, ov := range c.SegmentOverrides {
		out.SegmentOverrides[seg] = cloneOverride(ov)
	}
	out.EscalationOrder = append([]string(nil), c.EscalationOrder...)
	out.RuleWeights = make(map[RuleID]int, len(c.RuleWeights))
	for id, w := range c.RuleWeights {
		out.RuleWeights[id] = w
	}
	return out
}

func cloneOverride(ov ThresholdOverride) ThresholdOverride {
	out := ThresholdOverride{}
	if ov.DiscountThreshold != nil {
		v := *ov.DiscountThreshold
		out.DiscountThreshold = &v
	}
	if ov.ACVExecThreshold != nil {
		v := *ov.ACVExecThreshold
		out.ACVExecThreshold = &v
	}
	if ov.PaymentTermsLimit != nil {
		v := *ov.PaymentTermsLimit
		out.PaymentTermsLimit = &v
	}
	if ov.EURequiresLegal != nil {
		v := *ov.EURequiresLegal
		out.EURequiresLegal = &v
	}
	return out
}
