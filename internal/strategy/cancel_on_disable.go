package strategy

import (
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/state"
)

// CancelOnDisable wraps another strategy and adds one behaviour: whenever
// trading transitions to Disabled, it cancels every resting order instead
// of deferring to the wrapped strategy's (typically no-op) hook. This is
// the strategy most deployments want as a floor, even when layering a
// real alpha strategy on top.
type CancelOnDisable struct {
	Inner Strategy
}

var _ Strategy = CancelOnDisable{}

// GenerateAlgoOrders delegates to the inner strategy.
func (c CancelOnDisable) GenerateAlgoOrders(s *state.Store) Plan {
	return c.Inner.GenerateAlgoOrders(s)
}

// ClosePositionsPlan delegates to the inner strategy.
func (c CancelOnDisable) ClosePositionsPlan(s *state.Store, filter domain.Filter) Plan {
	return c.Inner.ClosePositionsPlan(s, filter)
}

// OnDisconnect delegates to the inner strategy.
func (c CancelOnDisable) OnDisconnect(s *state.Store, exchange domain.ExchangeIndex) Plan {
	return c.Inner.OnDisconnect(s, exchange)
}

// OnTradingDisabled cancels every resting order, ignoring whatever the
// inner strategy would have done.
func (c CancelOnDisable) OnTradingDisabled(s *state.Store) Plan {
	orders := s.OrdersView(domain.NoFilter())
	cancels := make([]domain.OrderRequestCancel, 0, len(orders))
	for _, o := range orders {
		cancels = append(cancels, domain.OrderRequestCancel{Key: o.Key, OrderID: o.OrderID})
	}
	return Plan{Cancels: cancels}
}
