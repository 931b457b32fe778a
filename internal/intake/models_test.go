package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "dealdesk/pkg/domain-errors"
)

// =============================================================================
// Intake Test Suite
// =============================================================================

type IntakeSuite struct {
	suite.Suite
}

func TestIntakeSuite(t *testing.T) {
	suite.Run(t, new(IntakeSuite))
}

func validInput() DealInput {
	return DealInput{
		DealType:            DealTypeNew,
		CustomerSegment:     SegmentEnterprise,
		AnnualContractValue: 120_000,
		DiscountPercentage:  15,
		PaymentTermsDays:    30,
		Region:              RegionNA,
	}
}

func (s *IntakeSuite) TestNewValidatedDeal() {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	deal, err := NewValidatedDeal(validInput(), now)
	s.Require().NoError(err)

	s.Len(deal.ID, 32)
	s.Regexp("^[0-9a-f]{32}$", deal.ID)
	s.Equal(now.UTC(), deal.CreatedAt)
	s.Equal(time.UTC, deal.CreatedAt.Location())
	s.Empty(deal.ClauseText)

	other, err := NewValidatedDeal(validInput(), now)
	s.Require().NoError(err)
	s.NotEqual(deal.ID, other.ID)
}

func (s *IntakeSuite) TestClauseText() {
	s.Run("provided clause is carried over", func() {
		clause := "Vendor shall provide annual SOC 2 audit reports."
		in := validInput()
		in.ClauseText = &clause

		deal, err := NewValidatedDeal(in, time.Now())
		s.Require().NoError(err)
		s.Equal(clause, deal.ClauseText)
	})

	s.Run("blank clause is rejected", func() {
		blank := "   "
		in := validInput()
		in.ClauseText = &blank

		_, err := NewValidatedDeal(in, time.Now())
		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("absent clause is legal", func() {
		in := validInput()
		in.ClauseText = nil
		s.NoError(in.Validate())
	})
}

func (s *IntakeSuite) TestValidate() {
	cases := []struct {
		name   string
		mutate func(*DealInput)
	}{
		{"unknown deal type", func(d *DealInput) { d.DealType = "Merger" }},
		{"unknown segment", func(d *DealInput) { d.CustomerSegment = "Tiny" }},
		{"zero acv", func(d *DealInput) { d.AnnualContractValue = 0 }},
		{"negative acv", func(d *DealInput) { d.AnnualContractValue = -5 }},
		{"negative discount", func(d *DealInput) { d.DiscountPercentage = -1 }},
		{"discount above 100", func(d *DealInput) { d.DiscountPercentage = 101 }},
		{"zero payment terms", func(d *DealInput) { d.PaymentTermsDays = 0 }},
		{"unknown region", func(d *DealInput) { d.Region = "Mars" }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			in := validInput()
			tc.mutate(&in)

			err := in.Validate()
			s.Error(err)
			s.True(dErrors.Is(err, dErrors.CodeValidation))
		})
	}

	s.Run("boundary values pass", func() {
		in := validInput()
		in.DiscountPercentage = 0
		s.NoError(in.Validate())
		in.DiscountPercentage = 100
		s.NoError(in.Validate())
	})
}
