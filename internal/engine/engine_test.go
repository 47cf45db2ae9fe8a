package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/clock"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/execution"
	"github.com/lumenquant/tradecore/internal/risk"
	"github.com/lumenquant/tradecore/internal/state"
	"github.com/lumenquant/tradecore/internal/strategy"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type fixture struct {
	store   *state.Store
	exIdx   domain.ExchangeIndex
	instIdx domain.InstrumentIndex
	usdtIdx domain.AssetIndex
	btcIdx  domain.AssetIndex
	router  *execution.Router
	auditS  *audit.Stream
	engine  *Engine
	inputCh chan Input
}

func newFixture(t *testing.T, strat strategy.Strategy) *fixture {
	t.Helper()
	spec := domain.InstrumentSpec{PriceTick: d("0.01"), QuantityTick: d("0.0001"), MinNotional: d("10"), Multiplier: d("1")}
	cat, err := catalog.New([]catalog.ExchangeSpec{
		{
			ID: "EX",
			Assets: []catalog.AssetSpec{
				{NameInternal: "btc", NameExchange: "BTC"},
				{NameInternal: "usdt", NameExchange: "USDT"},
			},
			Instruments: []catalog.InstrumentSpec{
				{NameInternal: "btc-usdt", NameExchange: "BTCUSDT", Kind: domain.InstrumentSpot, QuoteAsset: "usdt", BaseAsset: "btc", Spec: spec},
			},
		},
	})
	require.NoError(t, err)

	exIdx, err := cat.IndexExchange("EX")
	require.NoError(t, err)
	instIdx, err := cat.IndexInstrument(exIdx, "BTCUSDT")
	require.NoError(t, err)
	btcIdx, err := cat.IndexAsset(exIdx, "BTC")
	require.NoError(t, err)
	usdtIdx, err := cat.IndexAsset(exIdx, "USDT")
	require.NoError(t, err)

	s := state.New(cat)
	s.SetTrading(domain.TradingEnabled)

	router := execution.NewRouter([]domain.ExchangeIndex{exIdx}, 8, 8)
	clk := clock.NewHistoricalClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	auditS := audit.NewStream(clk)

	eng := New(s, Config{
		Strategy: strat,
		Risk:     risk.ApproveAll{},
		Router:   router,
		Audit:    auditS,
		Clock:    clk,
		Logger:   zerolog.Nop(),
	})

	return &fixture{
		store: s, exIdx: exIdx, instIdx: instIdx, usdtIdx: usdtIdx, btcIdx: btcIdx,
		router: router, auditS: auditS, engine: eng, inputCh: make(chan Input, 16),
	}
}

func TestScenarioAThroughEngineRun(t *testing.T) {
	f := newFixture(t, strategy.NoOp{})
	key := domain.OrderKey{Exchange: f.exIdx, Instrument: f.instIdx, Strategy: "manual", ClientID: "K"}

	sub := f.auditS.Subscribe(32)

	f.inputCh <- CommandInput(domain.Command{Kind: domain.CommandSendOpen, Open: domain.OrderRequestOpen{
		Key: key, Side: domain.SideBuy, Price: d("50000"), Quantity: d("0.2"), TimeInForce: domain.TIFGoodTilCancel, Kind: domain.OrderKindLimit,
	}})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventOrderSnapshot, Key: key, OrderID: "venue-1", State: domain.OrderOpen})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventFill, Key: key, FillSide: domain.SideBuy, FillPrice: d("50000"), FillQuantity: d("0.1"), FillFees: d("1")})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventFill, Key: key, FillSide: domain.SideBuy, FillPrice: d("50000"), FillQuantity: d("0.1"), FillFees: d("1")})
	close(f.inputCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := f.engine.Run(ctx, f.inputCh)
	require.NoError(t, err)

	pos, err := f.store.Instrument(f.instIdx)
	require.NoError(t, err)
	require.NotNil(t, pos.Position)
	assert.True(t, pos.Position.QuantityAbs.Equal(d("0.2")))

	// Drain the subscriber channel; the final record must be Shutdown.
	var last audit.Record
	for rec := range sub {
		last = rec
	}
	assert.Equal(t, audit.DiffShutdown, last.Diff.Kind)
}

func TestScenarioCUnknownOrderRejectedThroughEngine(t *testing.T) {
	f := newFixture(t, strategy.NoOp{})
	key := domain.OrderKey{Exchange: f.exIdx, Instrument: f.instIdx, Strategy: "manual", ClientID: "ghost"}

	sub := f.auditS.Subscribe(32)
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventRejection, Key: key, RejectReason: "no-such-order"})
	close(f.inputCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.engine.Run(ctx, f.inputCh))

	var sawWarning bool
	for rec := range sub {
		if rec.Diff.Kind == audit.DiffUnknownOrderReferenced {
			sawWarning = true
			assert.Equal(t, key, rec.Diff.UnknownKey)
		}
	}
	assert.True(t, sawWarning)
}

func TestScenarioETradingDisabledCancelsRestingOrders(t *testing.T) {
	f := newFixture(t, strategy.CancelOnDisable{Inner: strategy.NoOp{}})
	key := domain.OrderKey{Exchange: f.exIdx, Instrument: f.instIdx, Strategy: "manual", ClientID: "K"}

	f.inputCh <- CommandInput(domain.Command{Kind: domain.CommandSendOpen, Open: domain.OrderRequestOpen{Key: key, Side: domain.SideBuy, Price: d("50000"), Quantity: d("0.1"), Kind: domain.OrderKindLimit}})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventOrderSnapshot, Key: key, OrderID: "venue-1", State: domain.OrderOpen})
	f.inputCh <- TradingStateInput(domain.TradingDisabled)
	close(f.inputCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.engine.Run(ctx, f.inputCh))

	assert.Equal(t, domain.TradingDisabled, f.store.Trading())
	ord, ok := f.store.Orders().Order(key)
	require.True(t, ok)
	assert.Equal(t, domain.OrderInFlightCancel, ord.State)
}

func TestShutdownCommandStopsTheLoop(t *testing.T) {
	f := newFixture(t, strategy.NoOp{})
	f.inputCh <- CommandInput(domain.Command{Kind: domain.CommandShutdown})
	// A trailing event must never be processed once Shutdown is handled.
	f.inputCh <- TradingStateInput(domain.TradingDisabled)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.engine.Run(ctx, f.inputCh))

	assert.Equal(t, domain.TradingEnabled, f.store.Trading(), "event after Shutdown must not be processed")
}

// onDisconnectStub records every OnDisconnect call and otherwise behaves
// like strategy.NoOp.
type onDisconnectStub struct {
	calls    int
	exchange domain.ExchangeIndex
	plan     strategy.Plan
}

var _ strategy.Strategy = (*onDisconnectStub)(nil)

func (s *onDisconnectStub) GenerateAlgoOrders(*state.Store) strategy.Plan { return strategy.Plan{} }

func (s *onDisconnectStub) ClosePositionsPlan(*state.Store, domain.Filter) strategy.Plan {
	return strategy.Plan{}
}

func (s *onDisconnectStub) OnDisconnect(st *state.Store, exchange domain.ExchangeIndex) strategy.Plan {
	s.calls++
	s.exchange = exchange
	return s.plan
}

func (s *onDisconnectStub) OnTradingDisabled(*state.Store) strategy.Plan { return strategy.Plan{} }

func TestScenarioDOnDisconnectInvokedAndPlanRouted(t *testing.T) {
	stub := &onDisconnectStub{}
	f := newFixture(t, stub)
	key := domain.OrderKey{Exchange: f.exIdx, Instrument: f.instIdx, Strategy: "auto", ClientID: "reconnect-open"}
	stub.plan = strategy.Plan{Opens: []domain.OrderRequestOpen{{
		Key: key, Side: domain.SideBuy, Price: d("100"), Quantity: d("0.01"), Kind: domain.OrderKindLimit,
	}}}

	outbound, err := f.router.Outbound(f.exIdx)
	require.NoError(t, err)

	f.inputCh <- AccountInput(domain.AccountEvent{
		Kind: domain.AccountEventConnectivity, Exchange: f.exIdx, Connectivity: domain.ConnectivityReconnecting,
	})
	close(f.inputCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.engine.Run(ctx, f.inputCh))

	assert.Equal(t, 1, stub.calls, "OnDisconnect must fire exactly once per Healthy->Reconnecting transition")
	assert.Equal(t, f.exIdx, stub.exchange)

	select {
	case req := <-outbound:
		assert.Equal(t, domain.ExecutionRequestOpen, req.Kind)
		require.NotNil(t, req.Open)
		assert.Equal(t, key, req.Open.Key)
	default:
		t.Fatal("expected the hook's approved open to be routed to the exchange's outbound channel")
	}

	rec, ok := f.store.Orders().InFlight(key)
	require.True(t, ok, "the approved open must be recorded in-flight before a venue snapshot confirms it")
	assert.Equal(t, key, rec.Key)
	assert.False(t, rec.CancelOnly)
}

func TestScenarioFAuditReplayMatchesEngineState(t *testing.T) {
	f := newFixture(t, strategy.NoOp{})
	sub := f.auditS.Subscribe(64)

	keyA := domain.OrderKey{Exchange: f.exIdx, Instrument: f.instIdx, Strategy: "manual", ClientID: "K"}
	keyB := domain.OrderKey{Exchange: f.exIdx, Instrument: f.instIdx, Strategy: "manual", ClientID: "K2"}
	ghost := domain.OrderKey{Exchange: f.exIdx, Instrument: f.instIdx, Strategy: "manual", ClientID: "ghost"}

	// The fixture enables trading before the audit subscriber exists, so
	// replay it here too: otherwise the replica would never observe the
	// transition and would start from its own Disabled default.
	f.inputCh <- TradingStateInput(domain.TradingEnabled)

	// Scenario A: open, partial, full fill.
	f.inputCh <- CommandInput(domain.Command{Kind: domain.CommandSendOpen, Open: domain.OrderRequestOpen{
		Key: keyA, Side: domain.SideBuy, Price: d("50000"), Quantity: d("0.2"), TimeInForce: domain.TIFGoodTilCancel, Kind: domain.OrderKindLimit,
	}})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventOrderSnapshot, Key: keyA, OrderID: "venue-1", State: domain.OrderOpen})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventFill, Key: keyA, FillSide: domain.SideBuy, FillPrice: d("50000"), FillQuantity: d("0.1"), FillFees: d("1")})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventFill, Key: keyA, FillSide: domain.SideBuy, FillPrice: d("50000"), FillQuantity: d("0.1"), FillFees: d("1")})

	// Scenario B: position flip. The engine owns state exclusively, so
	// this continues from the Long 0.2 position A just produced rather
	// than a freshly preloaded Long 0.3 — there is no way to preload the
	// store out of band once it is driven through Run.
	f.inputCh <- CommandInput(domain.Command{Kind: domain.CommandSendOpen, Open: domain.OrderRequestOpen{
		Key: keyB, Side: domain.SideSell, Price: d("55000"), Quantity: d("0.5"), Kind: domain.OrderKindLimit,
	}})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventOrderSnapshot, Key: keyB, OrderID: "venue-2", State: domain.OrderOpen})
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventFill, Key: keyB, FillSide: domain.SideSell, FillPrice: d("55000"), FillQuantity: d("0.5"), FillFees: d("0")})

	// Scenario C: unknown OrderKey reject.
	f.inputCh <- AccountInput(domain.AccountEvent{Kind: domain.AccountEventRejection, Key: ghost, RejectReason: "no-such-order"})

	close(f.inputCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.engine.Run(ctx, f.inputCh))

	replica := audit.NewReplica()
	for rec := range sub {
		require.NoError(t, replica.Apply(rec))
	}
	assert.True(t, replica.Closed())

	pos, err := f.store.Instrument(f.instIdx)
	require.NoError(t, err)
	replicaInst := replica.Instrument(f.instIdx)
	require.NotNil(t, pos.Position)
	require.NotNil(t, replicaInst.Position)
	assert.Equal(t, pos.Position.Side, replicaInst.Position.Side)
	assert.True(t, pos.Position.QuantityAbs.Equal(replicaInst.Position.QuantityAbs))
	assert.True(t, pos.Position.AverageEntry.Equal(replicaInst.Position.AverageEntry))
	assert.True(t, pos.Position.RealisedPnL.Equal(replicaInst.Position.RealisedPnL))

	usdtLive, err := f.store.Asset(f.usdtIdx)
	require.NoError(t, err)
	usdtReplica := replica.Asset(f.usdtIdx)
	assert.True(t, usdtLive.Balance.Free.Equal(usdtReplica.Balance.Free))
	assert.True(t, usdtLive.Balance.Total.Equal(usdtReplica.Balance.Total))

	btcLive, err := f.store.Asset(f.btcIdx)
	require.NoError(t, err)
	btcReplica := replica.Asset(f.btcIdx)
	assert.True(t, btcLive.Balance.Free.Equal(btcReplica.Balance.Free))
	assert.True(t, btcLive.Balance.Total.Equal(btcReplica.Balance.Total))

	_, liveHasA := f.store.Orders().Order(keyA)
	_, replicaHasA := replica.Order(keyA)
	assert.Equal(t, liveHasA, replicaHasA, "order K should be fully filled and absent from both views")

	_, liveHasB := f.store.Orders().Order(keyB)
	_, replicaHasB := replica.Order(keyB)
	assert.Equal(t, liveHasB, replicaHasB, "order K2 should be fully filled and absent from both views")

	liveConn, err := f.store.Connectivity(f.exIdx)
	require.NoError(t, err)
	assert.Equal(t, liveConn, replica.Connectivity(f.exIdx))

	assert.Equal(t, f.store.Trading(), replica.Trading())
}
