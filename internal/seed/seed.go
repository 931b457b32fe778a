// Package seed generates realistic random deals for demos and load
// exploration. It drives the same pipeline service as real submissions.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"dealdesk/internal/deal"
	"dealdesk/internal/intake"
)

// Clause pool for random deals. Empty entries produce deals without a clause,
// so seeded data exercises both advisory and non-advisory paths.
var sampleClauses = []string{
	"All data must be stored within the European Union at all times.",
	"Vendor shall provide annual SOC 2 Type II audit reports.",
	"All intellectual property created during the engagement belongs to the customer.",
	"Customer retains the right to conduct on-site security audits quarterly.",
	"Data must not be transferred outside of the originating jurisdiction.",
	"Vendor indemnifies customer against all third-party IP infringement claims.",
	"Source code shall be placed in escrow with a neutral third party.",
	"Customer may terminate for convenience with 30 days written notice.",
	"", "", "", "",
}

// acvRange is the realistic contract-value band for one segment.
type acvRange struct {
	low, high float64
}

var acvRanges = map[intake.CustomerSegment]acvRange{
	intake.SegmentSMB:        {5_000, 50_000},
	intake.SegmentMidMarket:  {25_000, 200_000},
	intake.SegmentEnterprise: {75_000, 500_000},
	intake.SegmentStrategic:  {150_000, 1_000_000},
}

// Generator produces random deal inputs from a seeded source, so tests can
// make seeding reproducible.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator from the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Deal generates one random but realistic submission.
func (g *Generator) Deal() intake.DealInput {
	types := intake.DealTypes()
	segments := intake.Segments()
	regions := intake.Regions()

	segment := segments[g.rng.Intn(len(segments))]
	band := acvRanges[segment]
	acv := band.low + g.rng.Float64()*(band.high-band.low)
	acv = float64(int64(acv/1000+0.5)) * 1000 // nearest thousand

	discount := float64(int64(g.rng.Float64()*35*10+0.5)) / 10 // one decimal
	paymentChoices := []int{15, 30, 45, 60, 90}

	in := intake.DealInput{
		DealType:             types[g.rng.Intn(len(types))],
		CustomerSegment:      segment,
		AnnualContractValue:  acv,
		DiscountPercentage:   discount,
		PaymentTermsDays:     paymentChoices[g.rng.Intn(len(paymentChoices))],
		Region:               regions[g.rng.Intn(len(regions))],
		CustomSecurityClause: g.rng.Float64() < 0.3,
	}
	if clause := sampleClauses[g.rng.Intn(len(sampleClauses))]; clause != "" {
		in.ClauseText = &clause
	}
	return in
}

// Pipeline is the slice of the deal service seeding drives.
type Pipeline interface {
	Process(ctx context.Context, in intake.DealInput) (deal.PipelineResult, error)
	Validate(ctx context.Context, in intake.DealInput) (intake.ValidatedDeal, error)
}

// Service seeds the store with generated deals.
type Service struct {
	pipeline Pipeline
	store    deal.Store
	gen      *Generator
	logger   *slog.Logger
}

// NewService creates a seeding service.
func NewService(pipeline Pipeline, store deal.Store, gen *Generator, logger *slog.Logger) *Service {
	return &Service{pipeline: pipeline, store: store, gen: gen, logger: logger}
}

// Seed generates count random deals. With autoProcess they run the full
// pipeline; without it they are stored validated-only. Returns the new ids.
func (s *Service) Seed(ctx context.Context, count int, autoProcess bool) ([]string, error) {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		in := s.gen.Deal()
		if autoProcess {
			result, err := s.pipeline.Process(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("seed deal %d: %w", i, err)
			}
			ids = append(ids, result.Deal.ID)
			continue
		}
		validated, err := s.pipeline.Validate(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seed deal %d: %w", i, err)
		}
		if err := s.store.Insert(ctx, validated); err != nil {
			return nil, fmt.Errorf("store seed deal %d: %w", i, err)
		}
		ids = append(ids, validated.ID)
	}

	s.logger.InfoContext(ctx, "seeded deals", "count", len(ids), "auto_process", autoProcess)
	return ids, nil
}

// ResetAndSeed wipes all deals and overrides, then seeds count fully
// processed deals.
func (s *Service) ResetAndSeed(ctx context.Context, count int) ([]string, error) {
	if err := s.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset store: %w", err)
	}
	return s.Seed(ctx, count, true)
}
