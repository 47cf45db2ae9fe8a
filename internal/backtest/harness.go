package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenquant/tradecore/internal/clock"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/engine"
)

// Harness drives an already-constructed Engine over a pre-materialized,
// time-ordered sequence of events using a HistoricalClock, sampling the
// accounting asset's balance after every event to build an equity curve,
// then summarises the run. It never touches the network or a wall clock;
// given the same engine construction and event sequence it produces the
// same Summary every time.
type Harness struct {
	Engine          *engine.Engine
	Clock           *clock.HistoricalClock
	AccountingAsset domain.AssetIndex
	Events          []Event
}

// Run feeds every event to the engine in order and returns the resulting
// summary. The engine's own Run loop executes on its own goroutine,
// reading from the channel this method feeds synchronously; the merge
// point is exactly the one a live deployment would use, just driven by a
// closed, pre-materialized sequence instead of live producers.
func (h *Harness) Run(ctx context.Context) (Summary, error) {
	samples := make([]equitySample, 0, len(h.Events)+1)
	samples = append(samples, h.sample(h.Clock.Now()))

	input := make(chan engine.Input)
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Engine.Run(ctx, input)
	}()

	for _, ev := range h.Events {
		h.Clock.Advance(ev.At)
		select {
		case input <- ev.Input:
		case <-ctx.Done():
			close(input)
			<-errCh
			return Summary{}, ctx.Err()
		}
		samples = append(samples, h.sample(ev.At))
	}
	close(input)

	if err := <-errCh; err != nil {
		return Summary{}, fmt.Errorf("backtest: engine run: %w", err)
	}

	return summarize(samples), nil
}

func (h *Harness) sample(at time.Time) equitySample {
	asset, err := h.Engine.State().Asset(h.AccountingAsset)
	if err != nil {
		return equitySample{at: at}
	}
	return equitySample{at: at, equity: asset.Balance.Total}
}
