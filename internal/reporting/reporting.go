// Package reporting aggregates persisted decisions and overrides into an
// operational summary. It consumes stored decision shapes only and never
// re-evaluates anything.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"dealdesk/internal/deal"
	"dealdesk/internal/rules"
)

// RuleCount is one entry of the trigger-frequency ranking.
type RuleCount struct {
	RuleID rules.RuleID `json:"rule_id"`
	Count  int          `json:"count"`
}

// Summary is the operational metrics snapshot. Rates use processed deals
// (auto-approved plus escalated) as the denominator; unprocessed deals count
// toward the total only.
type Summary struct {
	TotalDeals       int            `json:"total_deals"`
	AutoApproved     int            `json:"auto_approved"`
	Escalated        int            `json:"escalated"`
	Overridden       int            `json:"overridden"`
	AutoApprovalRate float64        `json:"auto_approval_rate"`
	EscalationRate   float64        `json:"escalation_rate"`
	OverrideRate     float64        `json:"override_rate"`
	EscalationByTeam map[string]int `json:"escalation_by_team"`
	TopRuleTriggers  []RuleCount    `json:"top_rule_triggers"`
	OverrideByReason map[string]int `json:"override_by_reason"`
	OverrideByTeam   map[string]int `json:"override_by_team"`
}

// Source is the read-only slice of the deal store reporting needs.
type Source interface {
	List(ctx context.Context) ([]deal.Record, error)
	Overrides(ctx context.Context) ([]deal.Override, error)
}

// Service computes operational summaries from stored deals.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a reporting service.
func NewService(source Source, logger *slog.Logger) *Service {
	return &Service{source: source, logger: logger}
}

// Summarize aggregates every stored deal and override into one snapshot.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	deals, err := s.source.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load deals: %w", err)
	}
	overrides, err := s.source.Overrides(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load overrides: %w", err)
	}

	summary := Summary{
		TotalDeals:       len(deals),
		Overridden:       len(overrides),
		EscalationByTeam: map[string]int{},
		OverrideByReason: map[string]int{},
		OverrideByTeam:   map[string]int{},
	}

	ruleCounts := map[rules.RuleID]int{}
	for _, rec := range deals {
		if rec.Decision == nil {
			continue
		}
		if rec.Decision.AutoApproved {
			summary.AutoApproved++
		} else {
			summary.Escalated++
			for _, team := range rec.Decision.EscalationPath {
				summary.EscalationByTeam[team]++
			}
		}
		for _, t := range rec.Decision.RuleTriggers {
			if t.Triggered {
				ruleCounts[t.RuleID]++
			}
		}
	}

	for _, ov := range overrides {
		summary.OverrideByReason[ov.Reason]++
		for _, team := range ov.OriginalDecision.EscalationPath {
			summary.OverrideByTeam[team]++
		}
	}

	processed := summary.AutoApproved + summary.Escalated
	if processed > 0 {
		summary.AutoApprovalRate = float64(summary.AutoApproved) / float64(processed)
		summary.EscalationRate = float64(summary.Escalated) / float64(processed)
		summary.OverrideRate = float64(summary.Overridden) / float64(processed)
	}
	summary.TopRuleTriggers = rankRules(ruleCounts)
	return summary, nil
}

// rankRules orders trigger counts by frequency descending, ties by rule id.
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
