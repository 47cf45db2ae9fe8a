package domain

import "github.com/shopspring/decimal"

// OrderRequestOpen is the payload the engine hands to the execution router
// to open a new order. It carries everything an adapter needs and nothing
// an adapter should be deciding for itself (price and quantity are already
// tick-rounded by the caller).
type OrderRequestOpen struct {
	Key         OrderKey
	Side        Side
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	TimeInForce TimeInForce
	Kind        OrderKind
}

// OrderRequestCancel asks the venue to cancel a previously opened order.
type OrderRequestCancel struct {
	Key     OrderKey
	OrderID OrderID
}

// ExecutionRequestKind discriminates the union carried by ExecutionRequest.
type ExecutionRequestKind string

const (
	ExecutionRequestOpen   ExecutionRequestKind = "open"
	ExecutionRequestCancel ExecutionRequestKind = "cancel"
)

// ExecutionRequest is the single type that flows through the router's
// per-exchange channels (§5). Exactly one of Open or Cancel is set,
// matching Kind.
type ExecutionRequest struct {
	Kind     ExecutionRequestKind
	Exchange ExchangeIndex
	Open     *OrderRequestOpen
	Cancel   *OrderRequestCancel
}

// NewOpenRequest builds an ExecutionRequest wrapping an open order request.
func NewOpenRequest(req OrderRequestOpen) ExecutionRequest {
	return ExecutionRequest{
		Kind:     ExecutionRequestOpen,
		Exchange: req.Key.Exchange,
		Open:     &req,
	}
}

// NewCancelRequest builds an ExecutionRequest wrapping a cancel request.
func NewCancelRequest(req OrderRequestCancel) ExecutionRequest {
	return ExecutionRequest{
		Kind:     ExecutionRequestCancel,
		Exchange: req.Key.Exchange,
		Cancel:   &req,
	}
}
