package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the instrument-level holding resulting from fills. A nil
// *Position means flat. Invariant: whenever non-nil, QuantityAbs > 0 (see
// spec §3.3 and §8 invariant 3); the arithmetic in internal/state enforces
// this by collapsing to nil the moment quantity reaches zero.
type Position struct {
	Side             PositionSide
	QuantityAbs      decimal.Decimal
	AverageEntry     decimal.Decimal
	RealisedPnL      decimal.Decimal
	UnrealisedPnL    decimal.Decimal
	TimeEnter        time.Time
	TimeUpdate       time.Time
}

// Clone returns a deep-enough copy for handing to read-only consumers
// (strategy, risk, audit) without letting them alias engine-owned state.
// decimal.Decimal and time.Time are themselves immutable value types, so a
// shallow copy already satisfies the "never by shared-mutable reference"
// rule in spec §9.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
