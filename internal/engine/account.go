package engine

import (
	"context"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/domain"
)

func (e *Engine) handleAccount(ctx context.Context, ev domain.AccountEvent) {
	prevConn, _ := e.state.Connectivity(ev.Exchange)

	res := e.state.UpdateFromAccount(ev)

	if res.UnknownOrder {
		e.logger.Warn().
			Str("strategy", string(ev.Key.Strategy)).
			Str("client_order_id", string(ev.Key.ClientID)).
			Msg("engine: account event referenced an unknown order key")
		e.auditS.Emit(audit.CauseFromAccount(ev), audit.StateDiff{
			Kind:       audit.DiffUnknownOrderReferenced,
			UnknownKey: ev.Key,
		})
		return
	}

	diff := audit.StateDiff{Kind: audit.DiffAccountProcessed}
	if res.Order != nil || ev.Kind == domain.AccountEventCancelAck {
		diff.OrderUpdates = []audit.OrderUpdate{audit.SnapshotOrder(e.state, ev.Key)}
	}
	switch ev.Kind {
	case domain.AccountEventFill:
		inst, err := e.cat.Instrument(ev.Key.Instrument)
		if err == nil {
			diff.InstrumentUpdates = audit.SnapshotInstruments(e.state, ev.Key.Instrument)
			assets := []domain.AssetIndex{inst.QuoteAsset}
			if inst.HasBase {
				assets = append(assets, inst.BaseAsset)
			}
			diff.AssetUpdates = audit.SnapshotAssets(e.state, assets...)
		}
	case domain.AccountEventBalanceUpdate:
		diff.AssetUpdates = audit.SnapshotAssets(e.state, ev.Asset)
	case domain.AccountEventConnectivity:
		diff.ConnectivityUpdates = audit.SnapshotConnectivity(e.state, ev.Exchange)
	}
	e.auditS.Emit(audit.CauseFromAccount(ev), diff)

	if ev.Kind == domain.AccountEventConnectivity &&
		prevConn.Account != domain.ConnectivityReconnecting &&
		ev.Connectivity == domain.ConnectivityReconnecting {
		plan := e.strategy.OnDisconnect(e.state, ev.Exchange)
		e.submitPlan(ctx, plan)
	}
}
