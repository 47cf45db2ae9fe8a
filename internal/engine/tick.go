package engine

import (
	"context"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/strategy"
)

// runStrategyTick runs the strategy-then-risk-then-submit pipeline once,
// invoked at the end of every handled event while trading is enabled.
func (e *Engine) runStrategyTick(ctx context.Context) {
	e.submitPlan(ctx, e.strategy.GenerateAlgoOrders(e.state))
}

// submitPlan risk-checks a plan, routes whatever it approves, and emits
// one OrdersGenerated audit record. Used both by the per-tick strategy
// call and by the disconnect/trading-disabled/command hooks, which all
// feed the same risk-then-submit pipeline.
func (e *Engine) submitPlan(ctx context.Context, plan strategy.Plan) {
	opensOK, opensRefused := e.risk.Check(plan.Opens, e.state)
	cancelsOK, _ := e.risk.CheckCancels(plan.Cancels, e.state)

	e.submitApproved(ctx, opensOK, cancelsOK)

	refused := make([]audit.OpenRefusal, 0, len(opensRefused))
	for _, r := range opensRefused {
		refused = append(refused, audit.OpenRefusal{Request: r.Request, Reason: r.Reason})
	}
	e.auditS.Emit(audit.Cause{Kind: audit.CauseNone}, audit.StateDiff{
		Kind: audit.DiffOrdersGenerated,
		OrdersGenerated: audit.OrdersGeneratedDiff{
			OpensApproved:   opensOK,
			OpensRefused:    refused,
			CancelsApproved: cancelsOK,
		},
	})
}
