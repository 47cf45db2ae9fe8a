package domain

import "github.com/shopspring/decimal"

// InstrumentSpec carries the venue's dealing constraints for one
// instrument: the smallest price and quantity increments, the minimum
// notional the venue will accept, and the contract multiplier (1 for spot,
// venue-defined for derivatives).
type InstrumentSpec struct {
	PriceTick    decimal.Decimal
	QuantityTick decimal.Decimal
	MinNotional  decimal.Decimal
	Multiplier   decimal.Decimal
}

// Instrument is compared by Index only — two Instrument values with the
// same Index are always considered the same instrument even if other
// fields differ (they never should, since the catalog is immutable).
type Instrument struct {
	Index        InstrumentIndex
	NameInternal string
	NameExchange string
	Exchange     ExchangeIndex
	Kind         InstrumentKind
	QuoteAsset   AssetIndex
	// BaseAsset is only meaningful for Kind == InstrumentSpot.
	BaseAsset AssetIndex
	HasBase   bool
	Spec      InstrumentSpec
}

// Equal compares two instruments by index, per spec §3.2.
func (i Instrument) Equal(other Instrument) bool {
	return i.Index == other.Index
}

// Asset is compared by Index only.
type Asset struct {
	Index        AssetIndex
	NameInternal string
	NameExchange string
	Exchange     ExchangeIndex
}

// Equal compares two assets by index, per spec §3.2.
func (a Asset) Equal(other Asset) bool {
	return a.Index == other.Index
}
