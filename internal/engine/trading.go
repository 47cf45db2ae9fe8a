package engine

import (
	"context"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/domain"
)

func (e *Engine) handleTradingState(ctx context.Context, t domain.TradingState) {
	changed := e.state.SetTrading(t)
	e.auditS.Emit(audit.Cause{Kind: audit.CauseNone}, audit.StateDiff{
		Kind:    audit.DiffTradingStateChanged,
		Trading: t,
	})

	if changed && t == domain.TradingDisabled {
		plan := e.strategy.OnTradingDisabled(e.state)
		e.submitPlan(ctx, plan)
	}
}
