package reporting

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dealdesk/internal/deal"
	"dealdesk/internal/intake"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
)

// =============================================================================
// Reporting Test Suite
// =============================================================================

type ReportingSuite struct {
	suite.Suite
	store   *deal.InMemoryStore
	service *Service
	ctx     context.Context
}

func TestReportingSuite(t *testing.T) {
	suite.Run(t, new(ReportingSuite))
}

func (s *ReportingSuite) SetupTest() {
	s.store = deal.NewInMemoryStore()
	s.service = NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *ReportingSuite) storeProcessed(d intake.ValidatedDeal) routing.Decision {
	cfg := rules.Default()
	s.Require().NoError(s.store.Insert(s.ctx, d))
	evaluation := rules.Evaluate(d, cfg)
	decision := routing.Route(evaluation, cfg)
	s.Require().NoError(s.store.AttachDecision(s.ctx, d.ID, evaluation, decision, nil))
	return decision
}

func reportDeal(id string, discount float64, region intake.Region) intake.ValidatedDeal {
	return intake.ValidatedDeal{
		ID:                  id,
		CreatedAt:           time.Now().UTC(),
		DealType:            intake.DealTypeNew,
		CustomerSegment:     intake.SegmentMidMarket,
		AnnualContractValue: 80_000,
		DiscountPercentage:  discount,
		PaymentTermsDays:    30,
		Region:              region,
	}
}

func (s *ReportingSuite) TestSummarizeEmpty() {
	summary, err := s.service.Summarize(s.ctx)
	s.Require().NoError(err)

	s.Zero(summary.TotalDeals)
	s.Zero(summary.AutoApprovalRate)
	s.Zero(summary.EscalationRate)
	s.Zero(summary.OverrideRate)
	s.Empty(summary.TopRuleTriggers)
}

func (s *ReportingSuite) TestSummarize() {
	// One auto-approval, two escalations (one of them overridden), and one
	// deal stuck in validated-only state.
	s.storeProcessed(reportDeal("clean", 5, intake.RegionNA))
	s.storeProcessed(reportDeal("disc", 25, intake.RegionNA))
	overriddenDecision := s.storeProcessed(reportDeal("disc-eu", 25, intake.RegionEU))
	s.Require().NoError(s.store.Insert(s.ctx, reportDeal("pending", 5, intake.RegionNA)))

	_, err := s.store.RecordOverride(s.ctx, deal.Override{
		DealID:           "disc-eu",
		Reason:           "Competitive pressure",
		CreatedAt:        time.Now().UTC(),
		OriginalDecision: overriddenDecision,
	})
	s.Require().NoError(err)

	summary, err := s.service.Summarize(s.ctx)
	s.Require().NoError(err)

	s.Run("counts", func() {
		s.Equal(4, summary.TotalDeals)
		s.Equal(1, summary.AutoApproved)
		s.Equal(2, summary.Escalated)
		s.Equal(1, summary.Overridden)
	})

	s.Run("rates use processed deals as denominator", func() {
		s.InDelta(1.0/3.0, summary.AutoApprovalRate, 1e-9)
		s.InDelta(2.0/3.0, summary.EscalationRate, 1e-9)
		s.InDelta(1.0/3.0, summary.OverrideRate, 1e-9)
	})

	s.Run("team load counts every escalated team", func() {
		s.Equal(map[string]int{
			rules.TeamFinance: 2,
			rules.TeamLegal:   1,
		}, summary.EscalationByTeam)
	})

	s.Run("trigger ranking orders by count then rule id", func() {
		s.Equal([]RuleCount{
			{RuleID: rules.RuleDiscountThreshold, Count: 2},
			{RuleID: rules.RuleEULegalReview, Count: 1},
		}, summary.TopRuleTriggers)
	})

	s.Run("override breakdowns", func() {
		s.Equal(map[string]int{"Competitive pressure": 1}, summary.OverrideByReason)
		s.Equal(map[string]int{
			rules.TeamFinance: 1,
			rules.TeamLegal:   1,
		}, summary.OverrideByTeam)
	})
}
