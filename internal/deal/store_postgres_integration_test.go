//go:build integration

package deal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dealdesk/internal/advisory"
	"dealdesk/internal/intake"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
	"dealdesk/pkg/testutil/containers"
)

// =============================================================================
// Postgres Store Integration Test Suite
// =============================================================================

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgresStore(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) sampleDeal(id string, createdAt time.Time) intake.ValidatedDeal {
	return intake.ValidatedDeal{
		ID:                   id,
		CreatedAt:            createdAt,
		DealType:             intake.DealTypeExpansion,
		CustomerSegment:      intake.SegmentEnterprise,
		AnnualContractValue:  250_000,
		DiscountPercentage:   28,
		PaymentTermsDays:     60,
		Region:               intake.RegionEU,
		CustomSecurityClause: true,
		ClauseText:           "All data must be stored within the European Union at all times.",
	}
}

func (s *PostgresStoreSuite) process(dealID string) (rules.EvaluationResult, routing.Decision) {
	cfg := rules.Default()
	rec, err := s.store.Get(s.ctx, dealID)
	s.Require().NoError(err)
	evaluation := rules.Evaluate(rec.Deal, cfg)
	decision := routing.Route(evaluation, cfg)
	adv := advisory.Mock{}.Analyze(s.ctx, rec.Deal.ClauseText)
	s.Require().NoError(s.store.AttachDecision(s.ctx, dealID, evaluation, decision, &adv))
	return evaluation, decision
}

func (s *PostgresStoreSuite) TestInsertAndGet() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Insert(s.ctx, s.sampleDeal("d1", now)))

	rec, err := s.store.Get(s.ctx, "d1")
	s.Require().NoError(err)
	s.Equal(StatusValidated, rec.Status)
	s.Equal("d1", rec.Deal.ID)
	s.Equal(250_000.0, rec.Deal.AnnualContractValue)
	s.True(rec.Deal.CustomSecurityClause)
	s.True(rec.Deal.CreatedAt.Equal(now))
	s.Nil(rec.Evaluation)
	s.Nil(rec.Decision)
	s.Nil(rec.Advisory)

	_, err = s.store.Get(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresStoreSuite) TestAttachDecisionRoundTrip() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Insert(s.ctx, s.sampleDeal("d1", now)))
	evaluation, decision := s.process("d1")

	rec, err := s.store.Get(s.ctx, "d1")
	s.Require().NoError(err)
	s.Equal(StatusProcessed, rec.Status)
	s.Require().NotNil(rec.Evaluation)
	s.Equal(evaluation, *rec.Evaluation)
	s.Require().NotNil(rec.Decision)
	s.Equal(decision, *rec.Decision)
	s.Require().NotNil(rec.Advisory)
	s.Equal("mock", rec.Advisory.ModelUsed)

	err = s.store.AttachDecision(s.ctx, "missing", evaluation, decision, nil)
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrderingAndFilter() {
	base := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Insert(s.ctx, s.sampleDeal("old", base.Add(-time.Hour))))
	s.Require().NoError(s.store.Insert(s.ctx, s.sampleDeal("new", base)))
	s.process("new")

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("new", all[0].Deal.ID)
	s.Equal("old", all[1].Deal.ID)

	processed, err := s.store.ListProcessed(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(processed, 1)
	s.Equal("new", processed[0].Deal.ID)
}

func (s *PostgresStoreSuite) TestOverrideFlow() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Insert(s.ctx, s.sampleDeal("d1", now)))
	_, decision := s.process("d1")

	id, err := s.store.RecordOverride(s.ctx, Override{
		DealID:           "d1",
		Reason:           "Strategic deal",
		Notes:            "board priority",
		OverriddenBy:     "vp-sales",
		CreatedAt:        now,
		OriginalDecision: decision,
	})
	s.Require().NoError(err)
	s.NotZero(id)

	rec, err := s.store.Get(s.ctx, "d1")
	s.Require().NoError(err)
	s.Equal(StatusOverridden, rec.Status)

	ovs, err := s.store.OverridesForDeal(s.ctx, "d1")
	s.Require().NoError(err)
	s.Require().Len(ovs, 1)
	s.Equal("Strategic deal", ovs[0].Reason)
	s.Equal("vp-sales", ovs[0].OverriddenBy)
	s.Equal(decision.EscalationPath, ovs[0].OriginalDecision.EscalationPath)

	_, err = s.store.RecordOverride(s.ctx, Override{DealID: "missing", OriginalDecision: decision})
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresStoreSuite) TestReset() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Insert(s.ctx, s.sampleDeal("d1", now)))
	_, decision := s.process("d1")
	_, err := s.store.RecordOverride(s.ctx, Override{
		DealID: "d1", Reason: "Other", CreatedAt: now, OriginalDecision: decision,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Reset(s.ctx))

	deals, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(deals)
	ovs, err := s.store.Overrides(s.ctx)
	s.Require().NoError(err)
	s.Empty(ovs)
}
