package backtest

import (
	"time"

	"github.com/lumenquant/tradecore/internal/engine"
)

// Event pairs a pre-materialized engine input with the historical time it
// occurred at. The harness advances its clock to this time before handing
// the input to the engine, so every timestamp the engine stamps on state it
// touches reflects replay time rather than wall-clock time (§9, backtest
// determinism).
type Event struct {
	At    time.Time
	Input engine.Input
}
