// Package domain contains the core domain types for the gas context.
package domain

import "time"

// Observation is one snapshot of gas-price tiers and network ratios.
// Prices are in Gwei. It is never mutated after creation.
type Observation struct {
	Safe             float64   `json:"safe"`
	Propose          float64   `json:"propose"`
	Fast             float64   `json:"fast"`
	SuggestedBaseFee float64   `json:"suggested_base_fee"`
	GasUsedRatio     []float64 `json:"gas_used_ratio"`
	LastBlock        uint64    `json:"last_block,omitempty"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// CurrentRatio returns the current congestion ratio (the first element), or 0
// when no ratios are present.
func (o Observation) CurrentRatio() float64 {
	if len(o.GasUsedRatio) == 0 {
		return 0
	}
	return o.GasUsedRatio[0]
}
