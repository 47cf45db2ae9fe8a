package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketEventKind discriminates the union carried by MarketEvent (§6.2).
type MarketEventKind string

const (
	MarketEventTrade        MarketEventKind = "trade"
	MarketEventBookTop      MarketEventKind = "book_top"
	MarketEventConnectivity MarketEventKind = "connectivity"
)

// MarketEvent is a read-only observation of the outside world. It never
// carries an opinion about what the engine should do next; that is the
// strategy's job once state has absorbed it.
type MarketEvent struct {
	Kind       MarketEventKind
	Exchange   ExchangeIndex
	Instrument InstrumentIndex
	Time       time.Time

	// Trade
	TradePrice    decimal.Decimal
	TradeQuantity decimal.Decimal
	TradeSide     Side

	// BookTop
	BestBid       decimal.Decimal
	BestBidSize   decimal.Decimal
	BestAsk       decimal.Decimal
	BestAskSize   decimal.Decimal

	// Connectivity
	Connectivity ConnectivityStatus
}

// AccountEventKind discriminates the union carried by AccountEvent (§6.1).
type AccountEventKind string

const (
	AccountEventOrderSnapshot AccountEventKind = "order_snapshot"
	AccountEventFill          AccountEventKind = "fill"
	AccountEventRejection     AccountEventKind = "rejection"
	AccountEventCancelAck     AccountEventKind = "cancel_ack"
	AccountEventBalanceUpdate AccountEventKind = "balance_update"
	AccountEventConnectivity  AccountEventKind = "connectivity"
)

// AccountEvent is a confirmation or correction arriving from a venue about
// an order, fill or balance the engine already knows it asked for (or, in
// the unsolicited case, one it did not — see UnknownOrderReferenced in
// internal/audit).
type AccountEvent struct {
	Kind     AccountEventKind
	Exchange ExchangeIndex
	Time     time.Time

	// OrderSnapshot / Rejection / CancelAck reference an order by key; the
	// venue-assigned OrderID is attached once known.
	Key     OrderKey
	OrderID OrderID
	State   OrderState
	Filled  decimal.Decimal

	// Fill
	FillPrice    decimal.Decimal
	FillQuantity decimal.Decimal
	FillSide     Side
	FillFees     decimal.Decimal

	// Rejection
	RejectReason string

	// BalanceUpdate
	Asset        AssetIndex
	FreeBalance  decimal.Decimal
	TotalBalance decimal.Decimal

	// Connectivity
	Connectivity ConnectivityStatus
}

// ConnectivityState is the per-exchange health of the two independent
// connections the engine tracks: market data and account/execution.
type ConnectivityState struct {
	MarketData ConnectivityStatus
	Account    ConnectivityStatus
}
