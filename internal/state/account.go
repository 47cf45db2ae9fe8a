package state

import (
	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/orders"
)

// AccountUpdateResult reports what an UpdateFromAccount call actually did,
// so the engine can decide which audit record(s) to emit without the state
// package knowing anything about audit shapes.
type AccountUpdateResult struct {
	// UnknownOrder is set when the event referenced an OrderKey the order
	// manager has no record of; state is left untouched in that case.
	UnknownOrder bool
	// Order is the active order after the update, nil for unknown-key or
	// connectivity/balance events.
	Order *domain.Order
	// RealisedPnLDelta is non-zero only for Fill events that closed some
	// or all of a position.
	RealisedPnLDelta decimal.Decimal
}

// UpdateFromAccount absorbs an AccountEvent, driving the order manager's
// state machine and, for fills, the position and quote-asset balance
// arithmetic. Unknown OrderKeys in Fill/Rejection/CancelAck events are
// tolerated: the result reports UnknownOrder=true and state is left
// unchanged, matching the reconciliation rules.
func (s *Store) UpdateFromAccount(ev domain.AccountEvent) AccountUpdateResult {
	switch ev.Kind {
	case domain.AccountEventOrderSnapshot:
		if err := s.orders.ApplySnapshot(ev, ev.Time); err != nil {
			return AccountUpdateResult{UnknownOrder: false}
		}
		ord, _ := s.orders.Order(ev.Key)
		return AccountUpdateResult{Order: ord}

	case domain.AccountEventFill:
		return s.applyFill(ev)

	case domain.AccountEventCancelAck:
		if err := s.orders.ApplyCancelAck(ev.Key, ev.Time); err != nil {
			return AccountUpdateResult{UnknownOrder: true}
		}
		return AccountUpdateResult{}

	case domain.AccountEventRejection:
		ord, err := s.orders.ApplyRejection(ev.Key, ev.RejectReason, ev.Time)
		if err != nil {
			return AccountUpdateResult{UnknownOrder: true}
		}
		return AccountUpdateResult{Order: ord}

	case domain.AccountEventBalanceUpdate:
		if int(ev.Asset) >= 0 && int(ev.Asset) < len(s.assets) {
			st := s.ensureAsset(ev.Asset)
			st.Balance.Free = ev.FreeBalance
			st.Balance.Total = ev.TotalBalance
			st.TimeLastUpdate = ev.Time
		}
		return AccountUpdateResult{}

	case domain.AccountEventConnectivity:
		if int(ev.Exchange) >= 0 && int(ev.Exchange) < len(s.connectivity) {
			s.connectivity[ev.Exchange].Account = ev.Connectivity
		}
		return AccountUpdateResult{}
	}
	return AccountUpdateResult{}
}

func (s *Store) applyFill(ev domain.AccountEvent) AccountUpdateResult {
	ord, err := s.orders.ApplyFill(ev, ev.Time)
	if err != nil {
		if err == orders.ErrUnknownOrderKey {
			return AccountUpdateResult{UnknownOrder: true}
		}
		return AccountUpdateResult{}
	}

	inst, err := s.cat.Instrument(ev.Key.Instrument)
	if err != nil {
		return AccountUpdateResult{Order: ord}
	}

	instState := s.ensureInstrument(ev.Key.Instrument)
	delta := applyTrade(&instState.Position, ev.FillSide, ev.FillPrice, ev.FillQuantity, ev.FillFees, ev.Time)

	if inst.HasBase {
		s.applyBaseAssetDelta(inst, ev)
	}
	s.applyQuoteAssetDelta(inst, ev)

	return AccountUpdateResult{Order: ord, RealisedPnLDelta: delta}
}

// applyBaseAssetDelta adjusts the base asset's free/total balance for a
// spot fill: a buy increases base holdings, a sell decreases them.
func (s *Store) applyBaseAssetDelta(inst *domain.Instrument, ev domain.AccountEvent) {
	if int(inst.BaseAsset) < 0 || int(inst.BaseAsset) >= len(s.assets) {
		return
	}
	base := s.ensureAsset(inst.BaseAsset)
	signed := ev.FillQuantity.Mul(decimalFromSign(ev.FillSide))
	base.Balance.Free = base.Balance.Free.Add(signed)
	base.Balance.Total = base.Balance.Total.Add(signed)
	base.TimeLastUpdate = ev.Time
}

// applyQuoteAssetDelta implements the free-balance convention decided for
// this implementation: a buy debits notional plus fees, a sell credits
// notional minus fees, uniformly, regardless of venue margin semantics.
func (s *Store) applyQuoteAssetDelta(inst *domain.Instrument, ev domain.AccountEvent) {
	if int(inst.QuoteAsset) < 0 || int(inst.QuoteAsset) >= len(s.assets) {
		return
	}
	quote := s.ensureAsset(inst.QuoteAsset)
	notional := ev.FillPrice.Mul(ev.FillQuantity)
	signed := notional.Mul(decimalFromSign(ev.FillSide).Neg())
	quote.Balance.Free = quote.Balance.Free.Add(signed).Sub(ev.FillFees)
	quote.Balance.Total = quote.Balance.Total.Add(signed).Sub(ev.FillFees)
	quote.TimeLastUpdate = ev.Time
}
