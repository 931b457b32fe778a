package handler

import "dealdesk/internal/deal"

// OverrideResponse confirms a recorded override.
type OverrideResponse struct {
	OverrideID int64  `json:"override_id"`
	DealID     string `json:"deal_id"`
	Message    string `json:"message"`
}

// FromOverride converts a recorded override into its API response.
func FromOverride(ov deal.Override) OverrideResponse {
	return OverrideResponse{
		OverrideID: ov.ID,
		DealID:     ov.DealID,
		Message:    "Deal override recorded successfully",
	}
}

// ListResponse wraps the stored deal list.
type ListResponse struct {
	Total int           `json:"total"`
	Deals []deal.Record `json:"deals"`
}
