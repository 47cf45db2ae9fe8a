// Package strategy defines the pluggable interface through which trading
// logic observes state and proposes orders. The engine never embeds
// strategy logic itself; it only calls through this interface once per
// tick and on the disconnect/trading-disabled hooks.
package strategy

import (
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/state"
)

// Plan is the pair of open and cancel requests a strategy hook returns.
// Either slice may be empty or nil.
type Plan struct {
	Opens   []domain.OrderRequestOpen
	Cancels []domain.OrderRequestCancel
}

// Strategy is the trait every trading strategy implements. GenerateAlgoOrders
// must be a pure function of the given state: calling it twice against an
// unchanged store must yield equal plans.
type Strategy interface {
	GenerateAlgoOrders(s *state.Store) Plan
	ClosePositionsPlan(s *state.Store, filter domain.Filter) Plan
	OnDisconnect(s *state.Store, exchange domain.ExchangeIndex) Plan
	OnTradingDisabled(s *state.Store) Plan
}

// NoOp is the default strategy used by backtests and integration tests
// that only exercise infrastructure. It never generates an order and never
// reacts to disconnects or trading being disabled.
type NoOp struct{}

var _ Strategy = NoOp{}

// GenerateAlgoOrders always returns an empty plan.
func (NoOp) GenerateAlgoOrders(*state.Store) Plan { return Plan{} }

// ClosePositionsPlan always returns an empty plan.
func (NoOp) ClosePositionsPlan(*state.Store, domain.Filter) Plan { return Plan{} }

// OnDisconnect always returns an empty plan.
func (NoOp) OnDisconnect(*state.Store, domain.ExchangeIndex) Plan { return Plan{} }

// OnTradingDisabled always returns an empty plan.
func (NoOp) OnTradingDisabled(*state.Store) Plan { return Plan{} }
