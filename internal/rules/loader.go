package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of the rules policy. Pointer/nil sections
// distinguish "absent, keep built-in" from "present, replace wholesale";
// within the defaults and cutoffs structs, absent fields keep their built-in
// values (see the custom unmarshalers in config.go).
type document struct {
	Defaults         *Thresholds                  `yaml:"defaults"`
	SegmentOverrides map[string]ThresholdOverride `yaml:"segment_overrides"`
	EscalationOrder  []string                     `yaml:"escalation_order"`
	RuleWeights      map[RuleID]int               `yaml:"rule_weights"`
	PriorityCutoffs  *PriorityCutoffs             `yaml:"priority_cutoffs"`
}

// Load reads the rules policy document at path. An empty path or a missing
// file yields the built-in defaults; a present but malformed document is an
// error, never silently ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read rules document: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse rules document: %w", err)
	}

	if doc.Defaults != nil {
		cfg.Defaults = *doc.Defaults
	}
	if doc.SegmentOverrides != nil {
		cfg.SegmentOverrides = doc.SegmentOverrides
	}
	if doc.EscalationOrder != nil {
		cfg.EscalationOrder = doc.EscalationOrder
	}
	if doc.RuleWeights != nil {
		cfg.RuleWeights = doc.RuleWeights
	}
	if doc.PriorityCutoffs != nil {
		cfg.PriorityCutoffs = *doc.PriorityCutoffs
	}
	return cfg, nil
}
