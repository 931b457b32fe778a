// Package advisory wraps the language-model clause analyzer. Its output is
// strictly advisory: nothing here feeds back into rule evaluation or routing.
package advisory

import (
	"fmt"
)

// RiskLevel is the analyst's coarse risk rating for a clause.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid reports whether the risk level is a known value.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Category tags the clause with one or more review domains.
type Category string

const (
	CategoryAudit         Category = "Audit"
	CategoryDataResidency Category = "Data Residency"
	CategoryIP            Category = "IP"
	CategoryOther         Category = "Other"
)

// Valid reports whether the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryAudit, CategoryDataResidency, CategoryIP, CategoryOther:
		return true
	}
	return false
}

// ReviewConfidenceFloor is the confidence below which an advisory is flagged
// for manual review.
const ReviewConfidenceFloor = 0.75

// ClauseAdvisory is the structured analysis of one contract clause. Error is
// set only on the fallback advisory returned after retries are exhausted.
type ClauseAdvisory struct {
	Summary        string     `json:"summary"`
	RiskLevel      RiskLevel  `json:"risk_level"`
	Categories     []Category `json:"categories"`
	Confidence     float64    `json:"confidence"`
	ReviewRequired bool       `json:"review_required"`
	RawClause      string     `json:"raw_clause"`
	ModelUsed      string     `json:"model_used"`
	Error          string     `json:"error,omitempty"`
}

// validate enforces the contract the model is prompted with: at least one
// known category, a known risk level, and confidence in [0, 1].
func (a ClauseAdvisory) validate() error {
	if !a.RiskLevel.Valid() {
		return fmt.Errorf("risk_level %q is not one of Low, Medium, High", a.RiskLevel)
	}
	if len(a.Categories) == 0 {
		return fmt.Errorf("categories must contain at least one value")
	}
	for _, c := range a.Categories {
		if !c.Valid() {
			return fmt.Errorf("category %q is not one of Audit, Data Residency, IP, Other", c)
		}
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v is outside [0, 1]", a.Confidence)
	}
	return nil
}
