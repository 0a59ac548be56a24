package model

import (
	"time"

	"github.com/google/uuid"
)

// Order is a client's wishlist: a cart of per-city, per-tier quantities that
// moves through the status lifecycle. Lines are mutable only in DRAFT; after
// submission only status and admin notes may change.
type Order struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Status      OrderStatus
	Lines       []OrderLine
	TotalAmount float64
	AdminNotes  string
	// Version guards concurrent edits of the same order. Every persisted
	// mutation checks and bumps it; a stale version fails the write.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderLine struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	City     string
	Province string
	Tier     Tier
	Quantity int
	// UnitPrice is snapshotted from the tariff when the line is added or
	// updated. A later tariff change never alters an existing line.
	UnitPrice  float64
	TotalPrice float64
	Notes      string
}

func (l OrderLine) Key() SupplyKey {
	return SupplyKey{City: l.City, Province: l.Province, Tier: l.Tier}
}

// RecomputeTotal refreshes line totals and the order total from quantities
// and snapshotted unit prices. Called after every line mutation.
func (o *Order) RecomputeTotal() {
	total := 0.0
	for i := range o.Lines {
		o.Lines[i].TotalPrice = float64(o.Lines[i].Quantity) * o.Lines[i].UnitPrice
		total += o.Lines[i].TotalPrice
	}
	o.TotalAmount = total
}

// RequestedByKey aggregates line quantities per supply key. Submission checks
// each key against availability as one unit.
func (o *Order) RequestedByKey() map[SupplyKey]int {
	requested := make(map[SupplyKey]int, len(o.Lines))
	for _, line := range o.Lines {
		requested[line.Key()] += line.Quantity
	}
	return requested
}

func (o *Order) Line(lineID uuid.UUID) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}
