package engine

import (
	"context"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/domain"
)

func (e *Engine) handleMarket(ctx context.Context, ev domain.MarketEvent) {
	prevConn, _ := e.state.Connectivity(ev.Exchange)

	if err := e.state.UpdateFromMarket(ev); err != nil {
		e.logger.Warn().Err(err).Msg("engine: market event referenced an out-of-range index")
		return
	}

	diff := audit.StateDiff{Kind: audit.DiffMarketProcessed}
	if ev.Kind == domain.MarketEventTrade || ev.Kind == domain.MarketEventBookTop {
		diff.InstrumentUpdates = audit.SnapshotInstruments(e.state, ev.Instrument)
	}
	if ev.Kind == domain.MarketEventConnectivity {
		diff.ConnectivityUpdates = audit.SnapshotConnectivity(e.state, ev.Exchange)
	}
	e.auditS.Emit(audit.CauseFromMarket(ev), diff)

	if ev.Kind == domain.MarketEventConnectivity &&
		prevConn.MarketData != domain.ConnectivityReconnecting &&
		ev.Connectivity == domain.ConnectivityReconnecting {
		plan := e.strategy.OnDisconnect(e.state, ev.Exchange)
		e.submitPlan(ctx, plan)
	}
}
