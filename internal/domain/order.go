package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderState is a state in the lifecycle state machine of §4.4. Filled,
// Cancelled, Expired and Rejected are terminal; InFlightOpen and
// InFlightCancel are the two non-terminal in-flight states. An open request
// waits in the in-flight recorder until its first confirmation; an active
// order moves to InFlightCancel when a cancel for it is submitted and stays
// in the active order table until the cancel is acknowledged.
type OrderState string

const (
	OrderInFlightOpen    OrderState = "in_flight_open"
	OrderOpen            OrderState = "open"
	OrderPartiallyFilled OrderState = "partially_filled"
	OrderFilled          OrderState = "filled"
	OrderCancelled       OrderState = "cancelled"
	OrderExpired         OrderState = "expired"
	OrderRejected        OrderState = "rejected"
	OrderInFlightCancel  OrderState = "in_flight_cancel"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderState) IsTerminal() bool {
	switch s {
	case OrderFilled, OrderCancelled, OrderExpired, OrderRejected:
		return true
	default:
		return false
	}
}

// Order is the engine's view of one order across its lifecycle. OrderID is
// the empty string until the venue confirms the order for the first time.
type Order struct {
	Key         OrderKey
	OrderID     OrderID
	Side        Side
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Filled      decimal.Decimal
	TimeInForce TimeInForce
	Kind        OrderKind
	State       OrderState
	TimeCreated time.Time
	TimeUpdate  time.Time
}

// Remaining returns Quantity - Filled.
func (o Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// Clone returns a value copy safe to hand to read-only consumers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	return &cp
}

// InFlightRecord is a request the engine has submitted to an adapter but
// has not yet seen confirmed or rejected. Kept in a dedicated table,
// disjoint from the active order table (spec §4.2 invariant).
type InFlightRecord struct {
	Key         OrderKey
	Request     OrderRequestOpen
	CancelOnly  bool // true when this in-flight entry represents a cancel, not an open
	TimeSubmit  time.Time
}
