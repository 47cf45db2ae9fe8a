package engine

import (
	"context"

	"github.com/lumenquant/tradecore/internal/domain"
)

// submitApproved records each approved request as in-flight and routes it
// to the execution router. router.Send blocks if the destination channel
// is full, which is the engine's only other suspension point besides
// input.next().
func (e *Engine) submitApproved(ctx context.Context, opens []domain.OrderRequestOpen, cancels []domain.OrderRequestCancel) {
	if e.router == nil {
		return
	}
	now := e.clk.Now()
	for _, o := range opens {
		e.state.RecordInFlight(o, now)
		if err := e.router.Send(ctx, domain.NewOpenRequest(o)); err != nil {
			e.logger.Warn().Err(err).Msg("engine: failed to route open request")
		}
	}
	for _, c := range cancels {
		e.state.RecordInFlightCancel(c, now)
		if err := e.router.Send(ctx, domain.NewCancelRequest(c)); err != nil {
			e.logger.Warn().Err(err).Msg("engine: failed to route cancel request")
		}
	}
}
