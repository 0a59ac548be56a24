package model

// Availability is the live view exposed to clients for one city: supply minus
// reservations per tier. Advisory only; submission re-checks atomically.
type Availability struct {
	City      string `json:"city"`
	Province  string `json:"province"`
	Evaluated int    `json:"evaluated"`
	CVOnly    int    `json:"cvOnly"`
}

// Shortfall reports, for one supply key, how far a submission overshoots the
// units still available.
type Shortfall struct {
	Key       SupplyKey `json:"key"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func (s Shortfall) Missing() int { return s.Requested - s.Available }
