// Order status graph:
//
//	DRAFT ──► SUBMITTED ──► APPROVED ──► PAID ──► DELIVERED
//	   │           │             │
//	   └───────────┴─────────────┴──► CANCELLED
//
// DELIVERED and CANCELLED are terminal. PAID cannot be cancelled here; a
// refund/reversal flow lives outside this service.
package model

import "fmt"

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// orderTransitions lists every allowed (from → to) pair.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:     {OrderStatusSubmitted, OrderStatusCancelled},
	OrderStatusSubmitted: {OrderStatusApproved, OrderStatusCancelled},
	OrderStatusApproved:  {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusDelivered},
	// DELIVERED and CANCELLED are terminal, no outgoing transitions
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	switch s {
	case OrderStatusDraft, OrderStatusSubmitted, OrderStatusApproved,
		OrderStatusPaid, OrderStatusDelivered, OrderStatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

// CanTransition returns true when moving from → to is permitted by the
// state machine.
func CanTransition(from, to OrderStatus) bool {
	allowed, ok := orderTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ReservingStatuses are the statuses whose order lines count against supply.
// DRAFT never reserves, DELIVERED units are consumed from supply itself and
// CANCELLED releases on the next ledger read.
var ReservingStatuses = []OrderStatus{
	OrderStatusSubmitted,
	OrderStatusApproved,
	OrderStatusPaid,
}

func (s OrderStatus) IsReserving() bool {
	for _, r := range ReservingStatuses {
		if s == r {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}
