package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Loader Test Suite
// =============================================================================

type LoaderSuite struct {
	suite.Suite
	dir string
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *LoaderSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *LoaderSuite) TestLoadFallbacks() {
	s.Run("empty path yields defaults", func() {
		cfg, err := Load("")
		s.NoError(err)
		s.Equal(Default(), cfg)
	})

	s.Run("missing file yields defaults", func() {
		cfg, err := Load(filepath.Join(s.dir, "absent.yaml"))
		s.NoError(err)
		s.Equal(Default(), cfg)
	})

	s.Run("malformed document is an error", func() {
		path := s.write("broken.yaml", "defaults: [not: a: map")
		_, err := Load(path)
		s.Error(err)
	})
}

func (s *LoaderSuite) TestLoadDocument() {
	path := s.write("rules.yaml", `
defaults:
  discount_threshold: 18
segment_overrides:
  Enterprise:
    discount_threshold: 25
rule_weights:
  DISCOUNT_THRESHOLD: 4
priority_cutoffs:
  P1: 7
`)
	cfg, err := Load(path)
	s.Require().NoError(err)

	s.Run("partial defaults keep built-in values for absent fields", func() {
		s.Equal(18.0, cfg.Defaults.DiscountThreshold)
		s.Equal(150_000.0, cfg.Defaults.ACVExecThreshold)
		s.Equal(45, cfg.Defaults.PaymentTermsLimit)
		s.True(cfg.Defaults.EURequiresLegal)
	})

	s.Run("present sections replace wholesale", func() {
		s.Equal(map[RuleID]int{RuleDiscountThreshold: 4}, cfg.RuleWeights)
		s.Require().Contains(cfg.SegmentOverrides, "Enterprise")
		s.Equal(25.0, *cfg.SegmentOverrides["Enterprise"].DiscountThreshold)
	})

	s.Run("partial cutoffs keep built-in tiers for absent fields", func() {
		s.Equal(PriorityCutoffs{P1: 7, P2: 3, P3: 1}, cfg.PriorityCutoffs)
	})

	s.Run("absent sections keep built-in values", func() {
		s.Equal(Default().EscalationOrder, cfg.EscalationOrder)
	})
}
