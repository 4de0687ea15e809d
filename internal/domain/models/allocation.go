package models

import "fmt"

// ShortfallPolicy decides what a delivery confirmation does when stock
// cannot cover the requested quantities.
type ShortfallPolicy string

const (
	// ShortfallAllow deducts whatever is available and reports the
	// shortfall in the result.
	ShortfallAllow ShortfallPolicy = "allow"
	// ShortfallReject fails the confirmation without writing anything.
	ShortfallReject ShortfallPolicy = "reject"
)

// ParseShortfallPolicy validates a raw policy string.
func ParseShortfallPolicy(raw string) (ShortfallPolicy, error) {
	policy := ShortfallPolicy(raw)
	switch policy {
	case ShortfallAllow, ShortfallReject:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown shortfall policy %q", raw)
	}
}

// BatchDraw records units taken from a single batch during allocation.
type BatchDraw struct {
	BatchID   string `json:"batch_id"`
	ProductID string `json:"product_id"`
	Taken     int    `json:"taken"`
	Remaining int    `json:"remaining"`
}

// Shortfall records units of a product that could not be covered by stock.
type Shortfall struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Missing   int    `json:"missing"`
}

// AllocationResult is the outcome of confirming a delivery.
type AllocationResult struct {
	DeliveryID       string      `json:"delivery_id"`
	AlreadyDelivered bool        `json:"already_delivered"`
	Draws            []BatchDraw `json:"draws"`
	Shortfalls       []Shortfall `json:"shortfalls,omitempty"`
}

// Fulfilled reports whether every requested unit was covered by stock.
func (r AllocationResult) Fulfilled() bool {
	return len(r.Shortfalls) == 0
}
