// Package audit implements the engine's audit stream: a sequence-numbered,
// strictly-ordered log of every observable state change, replayable by an
// external replica or durably persisted by a ledger writer. The engine
// itself holds no durable state; this package is the only path by which
// engine history survives a restart.
package audit

import (
	"time"

	"github.com/lumenquant/tradecore/internal/domain"
)

// DiffKind discriminates the StateDiff union. Every kind named in the
// engine loop's tick plus the reconciliation-warning and terminal-shutdown
// cases are represented; no free-form variant exists; consumers switch
// exhaustively.
type DiffKind string

const (
	DiffMarketProcessed        DiffKind = "market_processed"
	DiffAccountProcessed       DiffKind = "account_processed"
	DiffCommandProcessed       DiffKind = "command_processed"
	DiffTradingStateChanged    DiffKind = "trading_state_changed"
	DiffOrdersGenerated        DiffKind = "orders_generated"
	DiffUnknownOrderReferenced DiffKind = "unknown_order_referenced"
	DiffInFlightStale          DiffKind = "in_flight_stale"
	DiffTickComplete           DiffKind = "tick_complete"
	DiffShutdown               DiffKind = "shutdown"
)

// OrdersGeneratedDiff describes the result of one tick's strategy-then-risk
// pipeline.
type OrdersGeneratedDiff struct {
	OpensApproved   []domain.OrderRequestOpen
	OpensRefused    []OpenRefusal
	CancelsApproved []domain.OrderRequestCancel
}

// OpenRefusal pairs a refused open with its free-form reason, carried
// through from the risk checker untouched.
type OpenRefusal struct {
	Request domain.OrderRequestOpen
	Reason  string
}

// AssetUpdate carries the post-change value of one asset, so a replica can
// apply it directly instead of re-deriving it from the triggering event.
type AssetUpdate struct {
	Index domain.AssetIndex
	State domain.AssetState
}

// InstrumentUpdate carries the post-change value of one instrument.
type InstrumentUpdate struct {
	Index domain.InstrumentIndex
	State domain.InstrumentState
}

// ConnectivityUpdate carries the post-change connectivity of one exchange.
type ConnectivityUpdate struct {
	Index domain.ExchangeIndex
	State domain.ConnectivityState
}

// OrderUpdate carries the post-change value of one order. A nil Order
// means the key left the active table (filled, cancelled, expired,
// rejected without ever confirming).
type OrderUpdate struct {
	Key   domain.OrderKey
	Order *domain.Order
}

// StateDiff is the typed description of what changed, attached to every
// Record. Exactly the fields relevant to Kind are populated, and they
// carry whole post-change values rather than deltas: a replica applies a
// diff by assignment, never by re-deriving it from Cause.
type StateDiff struct {
	Kind DiffKind

	// MarketProcessed / AccountProcessed
	AssetUpdates        []AssetUpdate
	InstrumentUpdates   []InstrumentUpdate
	ConnectivityUpdates []ConnectivityUpdate
	OrderUpdates        []OrderUpdate

	// CommandProcessed
	Command domain.Command

	// TradingStateChanged
	Trading domain.TradingState

	// OrdersGenerated
	OrdersGenerated OrdersGeneratedDiff

	// UnknownOrderReferenced
	UnknownKey domain.OrderKey

	// InFlightStale
	StaleKeys []domain.OrderKey

	// TickComplete
	TickSequence uint64
}

// Record is one entry of the audit stream: a monotonic sequence number, a
// timestamp sourced from the engine's clock, the event or command that
// caused the change, and the typed diff describing the change itself.
type Record struct {
	Sequence uint64
	Time     time.Time
	Cause    Cause
	Diff     StateDiff
}

// CauseKind discriminates the union carried by Cause.
type CauseKind string

const (
	CauseMarketEvent  CauseKind = "market_event"
	CauseAccountEvent CauseKind = "account_event"
	CauseCommand      CauseKind = "command"
	CauseNone         CauseKind = "none"
)

// Cause identifies the input that produced a Record. At most one of the
// three payload fields is set, matching Kind.
type Cause struct {
	Kind    CauseKind
	Market  *domain.MarketEvent
	Account *domain.AccountEvent
	Command *domain.Command
}

// CauseFromMarket wraps a market event as a Cause.
func CauseFromMarket(ev domain.MarketEvent) Cause {
	return Cause{Kind: CauseMarketEvent, Market: &ev}
}

// CauseFromAccount wraps an account event as a Cause.
func CauseFromAccount(ev domain.AccountEvent) Cause {
	return Cause{Kind: CauseAccountEvent, Account: &ev}
}

// CauseFromCommand wraps a command as a Cause.
func CauseFromCommand(c domain.Command) Cause {
	return Cause{Kind: CauseCommand, Command: &c}
}
