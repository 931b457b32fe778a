// Package simulation answers "what if the policy changed" by re-running the
// evaluation and routing cores over stored deals under a patched
// configuration. It reads history and writes nothing.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"dealdesk/internal/deal"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
)

// Input is the proposed policy patch. Nil sections leave the baseline
// untouched; non-nil sections replace the baseline section wholesale.
type Input struct {
	Defaults         *rules.Thresholds                  `json:"defaults,omitempty"`
	SegmentOverrides map[string]rules.ThresholdOverride `json:"segment_overrides,omitempty"`
	RuleWeights      map[rules.RuleID]int               `json:"rule_weights,omitempty"`
	EscalationOrder  []string                           `json:"escalation_order,omitempty"`
	DisabledRules    []rules.RuleID                     `json:"disabled_rules,omitempty"`
}

// Validate implements the request validation hook. Any patch shape is legal;
// nonsense values produce nonsense metrics, not errors.
func (in *Input) Validate() error { return nil }

// RuleCount is one entry of the trigger-frequency ranking.
type RuleCount struct {
	RuleID rules.RuleID `json:"rule_id"`
	Count  int          `json:"count"`
}

// Metrics summarizes one evaluation pass over the deal history.
type Metrics struct {
	TotalDeals       int            `json:"total_deals"`
	AutoApproved     int            `json:"auto_approved"`
	Escalated        int            `json:"escalated"`
	AutoApprovalRate float64        `json:"auto_approval_rate"`
	EscalationRate   float64        `json:"escalation_rate"`
	EscalationByTeam map[string]int `json:"escalation_by_team"`
	TopRuleTriggers  []RuleCount    `json:"top_rule_triggers"`
}

// Delta is the simulated-minus-original difference. Rates are rounded to four
// decimal places; team counts cover the union of both passes.
type Delta struct {
	AutoApprovalRate float64        `json:"auto_approval_rate"`
	EscalationRate   float64        `json:"escalation_rate"`
	AutoApproved     int            `json:"auto_approved"`
	Escalated        int            `json:"escalated"`
	EscalationByTeam map[string]int `json:"escalation_by_team"`
}

// Result pairs both passes with their delta.
type Result struct {
	Original  Metrics `json:"original"`
	Simulated Metrics `json:"simulated"`
	Delta     Delta   `json:"delta"`
}

// DealSource is the read-only slice of the deal store the simulator needs.
type DealSource interface {
	ListProcessed(ctx context.Context) ([]deal.Record, error)
}

// Service runs simulations over stored processed deals.
type Service struct {
	source   DealSource
	baseline rules.Config
	logger   *slog.Logger
}

// NewService creates a simulation service against the given history source
// and baseline policy.
func NewService(source DealSource, baseline rules.Config, logger *slog.Logger) *Service {
	return &Service{source: source, baseline: baseline, logger: logger}
}

// Run loads the processed deal history and simulates the patched policy
// against it. Persisted state is never modified; both passes re-evaluate from
// the stored deal attributes, ignoring stored decisions.
func (s *Service) Run(ctx context.Context, in Input) (Result, error) {
	records, err := s.source.ListProcessed(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load deal history: %w", err)
	}

	simulated := applyPatch(s.baseline, in)
	disabled := make(map[rules.RuleID]bool, len(in.DisabledRules))
	for _, id := range in.DisabledRules {
		disabled[id] = true
	}

	original, err := computeMetrics(ctx, records, s.baseline, nil)
	if err != nil {
		return Result{}, err
	}
	simMetrics, err := computeMetrics(ctx, records, simulated, disabled)
	if err != nil {
		return Result{}, err
	}

	s.logger.InfoContext(ctx, "simulation completed",
		"total_deals", original.TotalDeals,
		"original_escalated", original.Escalated,
		"simulated_escalated", simMetrics.Escalated,
		"disabled_rules", len(in.DisabledRules),
	)

	return Result{
		Original:  original,
		Simulated: simMetrics,
		Delta:     computeDelta(original, simMetrics),
	}, nil
}

// applyPatch builds the simulated config from the baseline. Sections replace
// wholesale; there is no per-field merge at this level.
func applyPatch(baseline rules.Config, in Input) rules.Config {
	cfg := baseline.Clone()
	if in.Defaults != nil {
		cfg.Defaults = *in.Defaults
	}
	if in.SegmentOverrides != nil {
		cfg.SegmentOverrides = in.SegmentOverrides
	}
	if in.RuleWeights != nil {
		cfg.RuleWeights = in.RuleWeights
	}
	if in.EscalationOrder != nil {
		cfg.EscalationOrder = in.EscalationOrder
	}
	return cfg
}

// dealOutcome is the per-deal result of one pass, folded sequentially after
// the parallel evaluation so aggregation order never depends on scheduling.
type dealOutcome struct {
	autoApproved bool
	teams        []string
	firedRules   []rules.RuleID
}

func computeMetrics(ctx context.Context, records []deal.Record, cfg rules.Config, disabled map[rules.RuleID]bool) (Metrics, error) {
	outcomes := make([]dealOutcome, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			evaluation := rules.Evaluate(rec.Deal, cfg)
			if len(disabled) > 0 {
				evaluation = evaluation.WithRulesDisabled(disabled, cfg.PriorityCutoffs)
			}
			decision := routing.Route(evaluation, cfg)

			out := dealOutcome{autoApproved: decision.AutoApproved}
			if !decision.AutoApproved {
				out.teams = decision.EscalationPath
			}
			for _, t := range evaluation.Triggers {
				if t.Triggered {
					out.firedRules = append(out.firedRules, t.RuleID)
				}
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Metrics{}, fmt.Errorf("evaluate deal history: %w", err)
	}

	m := Metrics{
		TotalDeals:       len(records),
		EscalationByTeam: map[string]int{},
	}
	ruleCounts := map[rules.RuleID]int{}
	for _, out := range outcomes {
		if out.autoApproved {
			m.AutoApproved++
		} else {
			m.Escalated++
			for _, team := range out.teams {
				m.EscalationByTeam[team]++
			}
		}
		for _, id := range out.firedRules {
			ruleCounts[id]++
		}
	}
	if m.TotalDeals > 0 {
		m.AutoApprovalRate = float64(m.AutoApproved) / float64(m.TotalDeals)
		m.EscalationRate = float64(m.Escalated) / float64(m.TotalDeals)
	}
	m.TopRuleTriggers = rankRules(ruleCounts)
	return m, nil
}

// rankRules orders trigger counts by frequency descending, breaking ties by
// rule id so the ranking is reproducible.
func rankRules(counts map[rules.RuleID]int) []RuleCount {
	out := make([]RuleCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, RuleCount{RuleID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

func computeDelta(original, simulated Metrics) Delta {
	d := Delta{
		AutoApprovalRate: round4(simulated.AutoApprovalRate - original.AutoApprovalRate),
		EscalationRate:   round4(simulated.EscalationRate - original.EscalationRate),
		AutoApproved:     simulated.AutoApproved - original.AutoApproved,
		Escalated:        simulated.Escalated - original.Escalated,
		EscalationByTeam: map[string]int{},
	}
	for team := range original.EscalationByTeam {
		d.EscalationByTeam[team] = simulated.EscalationByTeam[team] - original.EscalationByTeam[team]
	}
	for team := range simulated.EscalationByTeam {
		if _, ok := d.EscalationByTeam[team]; !ok {
			d.EscalationByTeam[team] = simulated.EscalationByTeam[team]
		}
	}
	return d
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
