package engine

import (
	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/domain"
)

// SweepStaleInFlight checks for in-flight-open records older than the
// configured timeout and emits a warning audit record naming them. It
// never cancels or mutates anything; per the design, in-flight timeouts
// are observational only. Meant to be invoked periodically by an external
// scheduler (see internal/reliability), not from inside the event loop.
func (e *Engine) SweepStaleInFlight() {
	if e.inFlightTimeout <= 0 {
		return
	}
	stale := e.state.Orders().StaleInFlight(e.clk.Now(), e.inFlightTimeout)
	if len(stale) == 0 {
		return
	}

	keys := make([]domain.OrderKey, len(stale))
	for i, rec := range stale {
		keys[i] = rec.Key
		e.logger.Warn().
			Str("strategy", string(rec.Key.Strategy)).
			Str("client_order_id", string(rec.Key.ClientID)).
			Msg("engine: in-flight order exceeded configured timeout")
	}

	e.auditS.Emit(audit.Cause{Kind: audit.CauseNone}, audit.StateDiff{
		Kind:      audit.DiffInFlightStale,
		StaleKeys: keys,
	})
}
