// Package intake normalizes raw deal submissions into immutable, canonical
// deal records. Everything downstream (rules, routing, simulation) assumes a
// ValidatedDeal already satisfies the invariants enforced here.
package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "dealdesk/pkg/domain-errors"
)

// DealType classifies the commercial shape of a deal.
type DealType string

const (
	DealTypeNew       DealType = "New"
	DealTypeRenewal   DealType = "Renewal"
	DealTypeExpansion DealType = "Expansion"
	DealTypePilot     DealType = "Pilot"
)

// DealTypes lists all valid deal types in a stable order.
func DealTypes() []DealType {
	return []DealType{DealTypeNew, DealTypeRenewal, DealTypeExpansion, DealTypePilot}
}

// Valid reports whether the deal type is one of the known values.
func (t DealType) Valid() bool {
	switch t {
	case DealTypeNew, DealTypeRenewal, DealTypeExpansion, DealTypePilot:
		return true
	}
	return false
}

// CustomerSegment classifies the customer by size/strategic weight.
type CustomerSegment string

const (
	SegmentEnterprise CustomerSegment = "Enterprise"
	SegmentMidMarket  CustomerSegment = "Mid-Market"
	SegmentSMB        CustomerSegment = "SMB"
	SegmentStrategic  CustomerSegment = "Strategic"
)

// Segments lists all valid customer segments in a stable order.
func Segments() []CustomerSegment {
	return []CustomerSegment{SegmentEnterprise, SegmentMidMarket, SegmentSMB, SegmentStrategic}
}

// Valid reports whether the segment is one of the known values.
func (s CustomerSegment) Valid() bool {
	switch s {
	case SegmentEnterprise, SegmentMidMarket, SegmentSMB, SegmentStrategic:
		return true
	}
	return false
}

// Region is the sales region a deal belongs to.
type Region string

const (
	RegionNA    Region = "NA"
	RegionEU    Region = "EU"
	RegionUK    Region = "UK"
	RegionAPAC  Region = "APAC"
	RegionLATAM Region = "LATAM"
	RegionMEA   Region = "MEA"
)

// Regions lists all valid regions in a stable order.
func Regions() []Region {
	return []Region{RegionNA, RegionEU, RegionUK, RegionAPAC, RegionLATAM, RegionMEA}
}

// Valid reports whether the region is one of the known values.
func (r Region) Valid() bool {
	switch r {
	case RegionNA, RegionEU, RegionUK, RegionAPAC, RegionLATAM, RegionMEA:
		return true
	}
	return false
}

// DealInput is a raw deal submission, validated on ingestion.
// ClauseText is a pointer so "provided but blank" can be rejected while
// "absent" stays legal.
type DealInput struct {
	DealType             DealType        `json:"deal_type"`
	CustomerSegment      CustomerSegment `json:"customer_segment"`
	AnnualContractValue  float64         `json:"annual_contract_value"`
	DiscountPercentage   float64         `json:"discount_percentage"`
	PaymentTermsDays     int             `json:"payment_terms_days"`
	Region               Region          `json:"region"`
	CustomSecurityClause bool            `json:"custom_security_clause"`
	ClauseText           *string         `json:"clause_text,omitempty"`
}

// Validate checks every field constraint. Implements the Validatable
// interface for httputil.DecodeAndPrepare.
func (d *DealInput) Validate() error {
	if d == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !d.DealType.Valid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("deal_type %q is not one of %v", d.DealType, DealTypes()))
	}
	if !d.CustomerSegment.Valid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("customer_segment %q is not one of %v", d.CustomerSegment, Segments()))
	}
	if d.AnnualContractValue <= 0 {
		return dErrors.New(dErrors.CodeValidation, "annual_contract_value must be positive")
	}
	if d.DiscountPercentage < 0 || d.DiscountPercentage > 100 {
		return dErrors.New(dErrors.CodeValidation, "discount_percentage must be between 0 and 100")
	}
	if d.PaymentTermsDays <= 0 {
		return dErrors.New(dErrors.CodeValidation, "payment_terms_days must be positive")
	}
	if !d.Region.Valid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("region %q is not one of %v", d.Region, Regions()))
	}
	if d.ClauseText != nil && strings.TrimSpace(*d.ClauseText) == "" {
		return dErrors.New(dErrors.CodeValidation, "clause_text must not be empty when provided")
	}
	return nil
}

// ValidatedDeal is the immutable deal record produced after successful
// validation. It is passed by value everywhere; nothing mutates it after
// construction.
type ValidatedDeal struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	DealType             DealType        `json:"deal_type"`
	CustomerSegment      CustomerSegment `json:"customer_segment"`
	AnnualContractValue  float64         `json:"annual_contract_value"`
	DiscountPercentage   float64         `json:"discount_percentage"`
	PaymentTermsDays     int             `json:"payment_terms_days"`
	Region               Region          `json:"region"`
	CustomSecurityClause bool            `json:"custom_security_clause"`
	ClauseText           string          `json:"clause_text,omitempty"`
}

// NewValidatedDeal validates the submission and mints an immutable record
// with a fresh identifier and UTC timestamp. A partially-valid deal never
// exists: any constraint violation fails construction outright.
func NewValidatedDeal(in DealInput, now time.Time) (ValidatedDeal, error) {
	if err := in.Validate(); err != nil {
		return ValidatedDeal{}, err
	}

	clause := ""
	if in.ClauseText != nil {
		clause = *in.ClauseText
	}

	u := uuid.New()
	return ValidatedDeal{
		ID:                   fmt.Sprintf("%x", u[:]),
		CreatedAt:            now.UTC(),
		DealType:             in.DealType,
		CustomerSegment:      in.CustomerSegment,
		AnnualContractValue:  in.AnnualContractValue,
		DiscountPercentage:   in.DiscountPercentage,
		PaymentTermsDays:     in.PaymentTermsDays,
		Region:               in.Region,
		CustomSecurityClause: in.CustomSecurityClause,
		ClauseText:           clause,
	}, nil
}
