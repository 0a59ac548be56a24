package model

import "time"

// Tariff is the pair of per-unit prices for one city. When no PricingEntry
// exists for a city, the process-wide default tariff from config applies.
type Tariff struct {
	EvaluatedPrice float64 `json:"evaluatedPrice"`
	CVOnlyPrice    float64 `json:"cvOnlyPrice"`
}

func (t Tariff) For(tier Tier) float64 {
	if tier == TierEvaluated {
		return t.EvaluatedPrice
	}
	return t.CVOnlyPrice
}

type PricingEntry struct {
	City      string
	Province  string
	Tariff    Tariff
	UpdatedAt time.Time
}
