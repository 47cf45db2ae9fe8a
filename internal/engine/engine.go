// Package engine implements the single-threaded, cooperative event loop
// described in the design: one task owns the state store, processes
// events serially from a merged input channel, and emits one audit record
// per observable change.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/clock"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/execution"
	"github.com/lumenquant/tradecore/internal/risk"
	"github.com/lumenquant/tradecore/internal/state"
	"github.com/lumenquant/tradecore/internal/strategy"
)

// Config bundles everything the engine needs at construction time beyond
// the catalog and state store, which callers build separately so backtests
// can preload fixtures before the first tick.
type Config struct {
	Strategy        strategy.Strategy
	Risk            risk.Checker
	Router          *execution.Router
	Audit           *audit.Stream
	Clock           clock.Clock
	InFlightTimeout time.Duration
	Logger          zerolog.Logger
}

// Engine owns the state store and drives it from a merged input stream.
// It is not safe for concurrent use; Run must be the only goroutine
// touching it.
type Engine struct {
	cat   *catalog.Catalog
	state *state.Store

	strategy strategy.Strategy
	risk     risk.Checker
	router   *execution.Router
	auditS   *audit.Stream
	clk      clock.Clock

	inFlightTimeout time.Duration
	logger          zerolog.Logger
}

// New builds an Engine over an already-constructed state store.
func New(s *state.Store, cfg Config) *Engine {
	strat := cfg.Strategy
	if strat == nil {
		strat = strategy.NoOp{}
	}
	chk := cfg.Risk
	if chk == nil {
		chk = risk.ApproveAll{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Engine{
		cat:             s.Catalog(),
		state:           s,
		strategy:        strat,
		risk:            chk,
		router:          cfg.Router,
		auditS:          cfg.Audit,
		clk:             clk,
		inFlightTimeout: cfg.InFlightTimeout,
		logger:          cfg.Logger,
	}
}

// State exposes the underlying store for read-only consumers (the HTTP
// status surface). Never call a mutating method on it from outside Run.
func (e *Engine) State() *state.Store { return e.state }

// Run drains input until the channel closes, ctx is cancelled, or a
// Shutdown command is processed, whichever comes first. It recovers from
// any panic raised while handling an event, emits a diagnostic audit
// record, and returns the panic as an error rather than crashing the
// process, per the engine's crash-free policy.
func (e *Engine) Run(ctx context.Context, input <-chan Input) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("engine: recovered from panic, shutting down")
			e.auditS.EmitShutdown(audit.Cause{Kind: audit.CauseNone})
			err = fmt.Errorf("engine: recovered from panic: %v", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			e.auditS.EmitShutdown(audit.Cause{Kind: audit.CauseNone})
			return ctx.Err()
		case ev, ok := <-input:
			if !ok {
				e.auditS.EmitShutdown(audit.Cause{Kind: audit.CauseNone})
				return nil
			}
			shutdown := e.handle(ctx, ev)
			if shutdown {
				e.auditS.EmitShutdown(causeFromInput(ev))
				return nil
			}
		}
	}
}

func causeFromInput(ev Input) audit.Cause {
	switch ev.Kind {
	case InputMarket:
		return audit.CauseFromMarket(ev.Market)
	case InputAccount:
		return audit.CauseFromAccount(ev.Account)
	case InputCommand:
		return audit.CauseFromCommand(ev.Command)
	default:
		return audit.Cause{Kind: audit.CauseNone}
	}
}

// handle processes one Input to completion: the triggering mutation, its
// audit record, any hook reactions, and — if trading is enabled — one
// round of strategy-generated orders. It returns true if the engine
// should stop after this event (a Shutdown command was processed).
func (e *Engine) handle(ctx context.Context, ev Input) (shutdown bool) {
	switch ev.Kind {
	case InputMarket:
		e.handleMarket(ctx, ev.Market)
	case InputAccount:
		e.handleAccount(ctx, ev.Account)
	case InputCommand:
		if ev.Command.Kind == domain.CommandShutdown {
			return true
		}
		e.applyCommand(ctx, ev.Command)
	case InputTradingState:
		e.handleTradingState(ctx, ev.Trading)
	}

	if e.state.Trading() == domain.TradingEnabled {
		e.runStrategyTick(ctx)
	}

	e.auditS.Emit(causeFromInput(ev), audit.StateDiff{
		Kind:         audit.DiffTickComplete,
		TickSequence: e.auditS.Sequence() + 1,
	})
	return false
}
