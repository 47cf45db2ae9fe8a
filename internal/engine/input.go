package engine

import "github.com/lumenquant/tradecore/internal/domain"

// InputKind discriminates the union carried by Input, one per branch of
// the event loop's match statement.
type InputKind string

const (
	InputMarket       InputKind = "market"
	InputAccount      InputKind = "account"
	InputCommand      InputKind = "command"
	InputTradingState InputKind = "trading_state"
)

// Input is the single type flowing through the engine's merge point.
// Exactly one payload field is populated, matching Kind.
type Input struct {
	Kind    InputKind
	Market  domain.MarketEvent
	Account domain.AccountEvent
	Command domain.Command
	Trading domain.TradingState
}

// MarketInput wraps a market event as an Input.
func MarketInput(ev domain.MarketEvent) Input { return Input{Kind: InputMarket, Market: ev} }

// AccountInput wraps an account event as an Input.
func AccountInput(ev domain.AccountEvent) Input { return Input{Kind: InputAccount, Account: ev} }

// CommandInput wraps a command as an Input.
func CommandInput(c domain.Command) Input { return Input{Kind: InputCommand, Command: c} }

// TradingStateInput wraps a trading-state update as an Input.
func TradingStateInput(t domain.TradingState) Input {
	return Input{Kind: InputTradingState, Trading: t}
}
