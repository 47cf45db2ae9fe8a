package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the total and free quantity of one asset. Invariant:
// 0 ≤ Free ≤ Total (enforced by the state store, never by this type).
type Balance struct {
	Total decimal.Decimal
	Free  decimal.Decimal
}

// AssetState is everything the state store tracks for one AssetIndex.
type AssetState struct {
	Balance        Balance
	TimeLastUpdate time.Time
}

// MarketDataState is the latest market-data snapshot for one instrument.
type MarketDataState struct {
	TimeExchange time.Time
}

// InstrumentState is everything the state store tracks for one
// InstrumentIndex, aside from its active orders which live in the order
// manager.
type InstrumentState struct {
	Position   *Position
	MarketData MarketDataState
	Price      decimal.Decimal
	HasPrice   bool
}
