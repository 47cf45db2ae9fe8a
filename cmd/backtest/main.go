// Command backtest replays a pre-recorded scenario through the engine
// using a historical clock instead of a live adapter, printing the
// resulting equity-curve summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/backtest"
	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/clock"
	"github.com/lumenquant/tradecore/internal/config"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/engine"
	"github.com/lumenquant/tradecore/internal/execution"
	"github.com/lumenquant/tradecore/internal/state"

	loggerpkg "github.com/lumenquant/tradecore/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
}

func run() error {
	documentPath := flag.String("config", "./engine.yaml", "path to the declarative catalog/strategy/risk document")
	scenarioPath := flag.String("scenario", "", "path to a scenario JSON file (see ScenarioFile)")
	accountingExchange := flag.String("accounting-exchange", "", "exchange name the accounting asset is quoted on")
	accountingAsset := flag.String("accounting-asset", "", "exchange-facing name of the asset to sample as equity")
	flag.Parse()

	if *scenarioPath == "" {
		return fmt.Errorf("-scenario is required")
	}

	log := loggerpkg.New(loggerpkg.Config{Level: "info", Pretty: true})

	doc, err := config.LoadDocument(*documentPath)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", *documentPath, err)
	}

	specs, err := doc.BuildCatalogSpecs()
	if err != nil {
		return fmt.Errorf("building catalog specs: %w", err)
	}
	cat, err := catalog.New(specs)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}

	accountingExIdx, err := cat.IndexExchange(domain.ExchangeID(*accountingExchange))
	if err != nil {
		return fmt.Errorf("resolving accounting exchange %q: %w", *accountingExchange, err)
	}
	accountingAssetIdx, err := cat.IndexAsset(accountingExIdx, *accountingAsset)
	if err != nil {
		return fmt.Errorf("resolving accounting asset %q: %w", *accountingAsset, err)
	}

	st := state.New(cat)
	st.SetTrading(doc.InitialTradingState())

	strat, err := doc.BuildStrategy()
	if err != nil {
		return fmt.Errorf("resolving strategy: %w", err)
	}
	chk, err := doc.BuildRisk()
	if err != nil {
		return fmt.Errorf("resolving risk checker: %w", err)
	}

	scenarioBytes, err := os.ReadFile(*scenarioPath)
	if err != nil {
		return fmt.Errorf("reading scenario %s: %w", *scenarioPath, err)
	}
	var scenario ScenarioFile
	if err := json.Unmarshal(scenarioBytes, &scenario); err != nil {
		return fmt.Errorf("parsing scenario %s: %w", *scenarioPath, err)
	}
	if len(scenario.Events) == 0 {
		return fmt.Errorf("scenario %s has no events", *scenarioPath)
	}

	start := scenario.Events[0].At
	clk := clock.NewHistoricalClock(start)

	exchanges := make([]domain.ExchangeIndex, cat.NumExchanges())
	for i := range exchanges {
		exchanges[i] = domain.ExchangeIndex(i)
	}
	router := execution.NewRouter(exchanges, 4096, 4096)
	auditStream := audit.NewStream(clk)

	eng := engine.New(st, engine.Config{
		Strategy: strat,
		Risk:     chk,
		Router:   router,
		Audit:    auditStream,
		Clock:    clk,
		Logger:   log,
	})

	events, err := scenario.buildEvents(cat)
	if err != nil {
		return fmt.Errorf("resolving scenario events: %w", err)
	}

	h := &backtest.Harness{
		Engine:          eng,
		Clock:           clk,
		AccountingAsset: accountingAssetIdx,
		Events:          events,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := h.Run(ctx)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(summary)
}

// ScenarioFile is the wire format of a backtest replay: an ordered list
// of events, each naming the exchange and instrument by their catalog
// name rather than their index, since indices are an in-process detail.
// Events must already be sorted by At; the harness advances its clock
// monotonically through them in file order.
type ScenarioFile struct {
	Events []ScenarioEvent `json:"events"`
}

// ScenarioEvent carries exactly one of Market, Account or Command,
// selected by Type.
type ScenarioEvent struct {
	At      time.Time        `json:"at"`
	Type    string           `json:"type"` // "market", "account", "command"
	Market  *ScenarioMarket  `json:"market,omitempty"`
	Account *ScenarioAccount `json:"account,omitempty"`
	Command *ScenarioCommand `json:"command,omitempty"`
}

// ScenarioMarket mirrors domain.MarketEvent over the wire.
type ScenarioMarket struct {
	Kind          string          `json:"kind"`
	Exchange      string          `json:"exchange"`
	Instrument    string          `json:"instrument"`
	TradePrice    decimal.Decimal `json:"trade_price"`
	TradeQuantity decimal.Decimal `json:"trade_quantity"`
	TradeSide     string          `json:"trade_side"`
	BestBid       decimal.Decimal `json:"best_bid"`
	BestBidSize   decimal.Decimal `json:"best_bid_size"`
	BestAsk       decimal.Decimal `json:"best_ask"`
	BestAskSize   decimal.Decimal `json:"best_ask_size"`
	Connectivity  string          `json:"connectivity"`
}

// ScenarioAccount mirrors domain.AccountEvent over the wire.
type ScenarioAccount struct {
	Kind         string          `json:"kind"`
	Exchange     string          `json:"exchange"`
	Instrument   string          `json:"instrument"`
	Strategy     string          `json:"strategy"`
	ClientID     string          `json:"client_id"`
	OrderID      string          `json:"order_id"`
	State        string          `json:"state"`
	Filled       decimal.Decimal `json:"filled"`
	FillPrice    decimal.Decimal `json:"fill_price"`
	FillQuantity decimal.Decimal `json:"fill_quantity"`
	FillSide     string          `json:"fill_side"`
	FillFees     decimal.Decimal `json:"fill_fees"`
	RejectReason string          `json:"reject_reason"`
	Asset        string          `json:"asset"`
	FreeBalance  decimal.Decimal `json:"free_balance"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	Connectivity string          `json:"connectivity"`
}

// ScenarioCommand mirrors domain.Command over the wire for the two shapes
// a scenario plausibly needs: opening a position and shutting down.
type ScenarioCommand struct {
	Kind       string          `json:"kind"`
	Exchange   string          `json:"exchange"`
	Instrument string          `json:"instrument"`
	Strategy   string          `json:"strategy"`
	ClientID   string          `json:"client_id"`
	Side       string          `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	OrderKind  string          `json:"order_kind"`
}

func (sf ScenarioFile) buildEvents(cat *catalog.Catalog) ([]backtest.Event, error) {
	out := make([]backtest.Event, 0, len(sf.Events))
	for i, se := range sf.Events {
		input, err := se.resolve(cat)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, backtest.Event{At: se.At, Input: input})
	}
	return out, nil
}

func (se ScenarioEvent) resolve(cat *catalog.Catalog) (engine.Input, error) {
	switch se.Type {
	case "market":
		if se.Market == nil {
			return engine.Input{}, fmt.Errorf("type %q requires a \"market\" body", se.Type)
		}
		return se.Market.resolve(cat, se.At)
	case "account":
		if se.Account == nil {
			return engine.Input{}, fmt.Errorf("type %q requires an \"account\" body", se.Type)
		}
		return se.Account.resolve(cat, se.At)
	case "command":
		if se.Command == nil {
			return engine.Input{}, fmt.Errorf("type %q requires a \"command\" body", se.Type)
		}
		return se.Command.resolve(cat)
	default:
		return engine.Input{}, fmt.Errorf("unknown event type %q", se.Type)
	}
}

func (m *ScenarioMarket) resolve(cat *catalog.Catalog, at time.Time) (engine.Input, error) {
	exIdx, err := cat.IndexExchange(domain.ExchangeID(m.Exchange))
	if err != nil {
		return engine.Input{}, err
	}
	var instIdx domain.InstrumentIndex
	if m.Instrument != "" {
		instIdx, err = cat.IndexInstrument(exIdx, m.Instrument)
		if err != nil {
			return engine.Input{}, err
		}
	}
	return engine.MarketInput(domain.MarketEvent{
		Kind:          domain.MarketEventKind(m.Kind),
		Exchange:      exIdx,
		Instrument:    instIdx,
		Time:          at,
		TradePrice:    m.TradePrice,
		TradeQuantity: m.TradeQuantity,
		TradeSide:     domain.Side(m.TradeSide),
		BestBid:       m.BestBid,
		BestBidSize:   m.BestBidSize,
		BestAsk:       m.BestAsk,
		BestAskSize:   m.BestAskSize,
		Connectivity:  domain.ConnectivityStatus(m.Connectivity),
	}), nil
}

func (a *ScenarioAccount) resolve(cat *catalog.Catalog, at time.Time) (engine.Input, error) {
	exIdx, err := cat.IndexExchange(domain.ExchangeID(a.Exchange))
	if err != nil {
		return engine.Input{}, err
	}
	ev := domain.AccountEvent{
		Kind:         domain.AccountEventKind(a.Kind),
		Exchange:     exIdx,
		Time:         at,
		OrderID:      domain.OrderID(a.OrderID),
		State:        domain.OrderState(a.State),
		Filled:       a.Filled,
		FillPrice:    a.FillPrice,
		FillQuantity: a.FillQuantity,
		FillSide:     domain.Side(a.FillSide),
		FillFees:     a.FillFees,
		RejectReason: a.RejectReason,
		FreeBalance:  a.FreeBalance,
		TotalBalance: a.TotalBalance,
		Connectivity: domain.ConnectivityStatus(a.Connectivity),
	}
	if a.Instrument != "" {
		instIdx, err := cat.IndexInstrument(exIdx, a.Instrument)
		if err != nil {
			return engine.Input{}, err
		}
		ev.Key = domain.OrderKey{
			Exchange:   exIdx,
			Instrument: instIdx,
			Strategy:   domain.StrategyID(a.Strategy),
			ClientID:   domain.ClientOrderID(a.ClientID),
		}
	}
	if a.Asset != "" {
		assetIdx, err := cat.IndexAsset(exIdx, a.Asset)
		if err != nil {
			return engine.Input{}, err
		}
		ev.Asset = assetIdx
	}
	return engine.AccountInput(ev), nil
}

func (c *ScenarioCommand) resolve(cat *catalog.Catalog) (engine.Input, error) {
	switch domain.CommandKind(c.Kind) {
	case domain.CommandShutdown:
		return engine.CommandInput(domain.Command{Kind: domain.CommandShutdown}), nil

	case domain.CommandSendOpen:
		exIdx, err := cat.IndexExchange(domain.ExchangeID(c.Exchange))
		if err != nil {
			return engine.Input{}, err
		}
		instIdx, err := cat.IndexInstrument(exIdx, c.Instrument)
		if err != nil {
			return engine.Input{}, err
		}
		return engine.CommandInput(domain.Command{
			Kind: domain.CommandSendOpen,
			Open: domain.OrderRequestOpen{
				Key: domain.OrderKey{
					Exchange:   exIdx,
					Instrument: instIdx,
					Strategy:   domain.StrategyID(c.Strategy),
					ClientID:   domain.ClientOrderID(c.ClientID),
				},
				Side:     domain.Side(c.Side),
				Price:    c.Price,
				Quantity: c.Quantity,
				Kind:     domain.OrderKind(c.OrderKind),
			},
		}), nil

	default:
		return engine.Input{}, fmt.Errorf("unsupported scenario command kind %q", c.Kind)
	}
}
