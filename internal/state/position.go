package state

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/internal/domain"
)

var decimalTwo = decimal.NewFromInt(2)

// decimalFromSign returns +1 for a buy and -1 for a sell, matching
// domain.Side.Sign but as a decimal for direct arithmetic.
func decimalFromSign(side domain.Side) decimal.Decimal {
	return decimal.NewFromInt(int64(side.Sign()))
}

// recomputeUnrealised recomputes p.UnrealisedPnL at the given price,
// leaving realised PnL and quantity untouched.
func recomputeUnrealised(p *domain.Position, price decimal.Decimal) {
	diff := price.Sub(p.AverageEntry)
	p.UnrealisedPnL = diff.Mul(p.QuantityAbs).Mul(decimal.NewFromInt(int64(p.Side.Sign())))
}

// applyTrade applies a trade of (side, price, quantity, fees) to the
// position held at *pos (nil means flat), per the three cases: same side
// averages in, opposite side closes up to the held quantity, and any
// excess opens a new position on the flipped side at the trade price.
// fees are always subtracted from realised PnL in quote units. Returns the
// realised PnL delta booked by this trade (negative of fees alone when the
// trade only opens or adds to a position), for the caller to fold into
// balance and audit bookkeeping.
func applyTrade(pos **domain.Position, side domain.Side, price, quantity, fees decimal.Decimal, at time.Time) decimal.Decimal {
	tradeSide := domain.FromSide(side)

	if *pos == nil {
		*pos = &domain.Position{
			Side:         tradeSide,
			QuantityAbs:  quantity,
			AverageEntry: price,
			RealisedPnL:  fees.Neg(),
			TimeEnter:    at,
			TimeUpdate:   at,
		}
		recomputeUnrealised(*pos, price)
		return fees.Neg()
	}

	p := *pos
	if p.Side == tradeSide {
		totalQty := p.QuantityAbs.Add(quantity)
		p.AverageEntry = p.AverageEntry.Mul(p.QuantityAbs).Add(price.Mul(quantity)).Div(totalQty)
		p.QuantityAbs = totalQty
		p.RealisedPnL = p.RealisedPnL.Sub(fees)
		p.TimeUpdate = at
		recomputeUnrealised(p, price)
		return fees.Neg()
	}

	// Opposite side: close up to min(held, trade quantity).
	closing := decimal.Min(p.QuantityAbs, quantity)
	closeDelta := price.Sub(p.AverageEntry).Mul(closing).Mul(decimal.NewFromInt(int64(p.Side.Sign())))
	realisedDelta := closeDelta.Sub(fees)
	p.RealisedPnL = p.RealisedPnL.Add(closeDelta).Sub(fees)
	p.QuantityAbs = p.QuantityAbs.Sub(closing)
	p.TimeUpdate = at

	residual := quantity.Sub(closing)
	if p.QuantityAbs.IsZero() {
		if residual.IsPositive() {
			*pos = &domain.Position{
				Side:         tradeSide,
				QuantityAbs:  residual,
				AverageEntry: price,
				RealisedPnL:  decimal.Zero,
				TimeEnter:    at,
				TimeUpdate:   at,
			}
			recomputeUnrealised(*pos, price)
			return realisedDelta
		}
		*pos = nil
		return realisedDelta
	}
	recomputeUnrealised(p, price)
	return realisedDelta
}
