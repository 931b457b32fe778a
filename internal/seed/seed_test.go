package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"dealdesk/internal/advisory"
	"dealdesk/internal/deal"
	"dealdesk/internal/rules"
)

// =============================================================================
// Seed Test Suite
// =============================================================================

type SeedSuite struct {
	suite.Suite
	store   *deal.InMemoryStore
	service *Service
	ctx     context.Context
}

func TestSeedSuite(t *testing.T) {
	suite.Run(t, new(SeedSuite))
}

func (s *SeedSuite) SetupTest() {
	s.store = deal.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := deal.NewService(s.store, rules.Default(), advisory.Mock{}, logger, nil)
	s.service = NewService(pipeline, s.store, NewGenerator(42), logger)
	s.ctx = context.Background()
}

// =============================================================================
// Generator
// =============================================================================

func (s *SeedSuite) TestGeneratorProducesValidDeals() {
	gen := NewGenerator(7)
	paymentChoices := map[int]bool{15: true, 30: true, 45: true, 60: true, 90: true}

	for i := 0; i < 200; i++ {
		in := gen.Deal()
		s.Require().NoError(in.Validate(), "deal %d", i)

		band := acvRanges[in.CustomerSegment]
		s.GreaterOrEqual(in.AnnualContractValue, band.low-500)
		s.LessOrEqual(in.AnnualContractValue, band.high+500)
		s.Zero(int64(in.AnnualContractValue)%1000, "acv %v not rounded", in.AnnualContractValue)

		s.GreaterOrEqual(in.DiscountPercentage, 0.0)
		s.LessOrEqual(in.DiscountPercentage, 35.0)
		s.True(paymentChoices[in.PaymentTermsDays])
		if in.ClauseText != nil {
			s.NotEmpty(*in.ClauseText)
		}
	}
}

func (s *SeedSuite) TestGeneratorIsSeedDeterministic() {
	a, b := NewGenerator(99), NewGenerator(99)
	for i := 0; i < 20; i++ {
		s.Equal(a.Deal(), b.Deal())
	}
}

// =============================================================================
// Seeding Service
// =============================================================================

func (s *SeedSuite) TestSeedAutoProcess() {
	ids, err := s.service.Seed(s.ctx, 25, true)
	s.Require().NoError(err)
	s.Len(ids, 25)

	processed, err := s.store.ListProcessed(s.ctx)
	s.Require().NoError(err)
	s.Len(processed, 25)
	for _, rec := range processed {
		s.NotNil(rec.Decision)
		if rec.Deal.ClauseText != "" {
			s.NotNil(rec.Advisory)
		} else {
			s.Nil(rec.Advisory)
		}
	}
}

func (s *SeedSuite) TestSeedValidatedOnly() {
	ids, err := s.service.Seed(s.ctx, 10, false)
	s.Require().NoError(err)
	s.Len(ids, 10)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 10)
	for _, rec := range all {
		s.Equal(deal.StatusValidated, rec.Status)
		s.Nil(rec.Decision)
	}

	processed, err := s.store.ListProcessed(s.ctx)
	s.Require().NoError(err)
	s.Empty(processed)
}

func (s *SeedSuite) TestResetAndSeed() {
	_, err := s.service.Seed(s.ctx, 5, true)
	s.Require().NoError(err)

	ids, err := s.service.ResetAndSeed(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(ids, 3)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
	for _, rec := range all {
		s.Equal(deal.StatusProcessed, rec.Status)
	}
}
