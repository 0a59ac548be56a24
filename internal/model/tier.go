package model

import "fmt"

type Tier string

const (
	TierEvaluated Tier = "EVALUATED"
	TierCVOnly    Tier = "CV_ONLY"
)

func ParseTier(raw string) (Tier, error) {
	t := Tier(raw)
	switch t {
	case TierEvaluated, TierCVOnly:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", raw)
}

// SupplyKey identifies one pool of candidates: a city/province pair at one
// tier. Availability, reservations and submit-time locks are all scoped to
// this key.
type SupplyKey struct {
	City     string `json:"city"`
	Province string `json:"province"`
	Tier     Tier   `json:"tier"`
}

func (k SupplyKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.City, k.Province, k.Tier)
}
