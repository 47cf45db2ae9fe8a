package engine

import (
	"context"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/strategy"
)

func (e *Engine) applyCommand(ctx context.Context, c domain.Command) {
	switch c.Kind {
	case domain.CommandCancelOrders:
		orders := e.state.OrdersView(c.Filter)
		cancels := make([]domain.OrderRequestCancel, 0, len(orders))
		for _, o := range orders {
			cancels = append(cancels, domain.OrderRequestCancel{Key: o.Key, OrderID: o.OrderID})
		}
		e.submitPlan(ctx, strategy.Plan{Cancels: cancels})

	case domain.CommandClosePositions:
		plan := e.strategy.ClosePositionsPlan(e.state, c.Filter)
		e.submitPlan(ctx, plan)

	case domain.CommandSendOpen:
		e.submitPlan(ctx, strategy.Plan{Opens: []domain.OrderRequestOpen{c.Open}})

	case domain.CommandSendCancel:
		e.submitPlan(ctx, strategy.Plan{Cancels: []domain.OrderRequestCancel{c.Cancel}})
	}

	e.auditS.Emit(audit.CauseFromCommand(c), audit.StateDiff{Kind: audit.DiffCommandProcessed, Command: c})
}
