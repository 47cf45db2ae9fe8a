package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/risk"
	"github.com/lumenquant/tradecore/internal/strategy"
)

// BuildCatalogSpecs translates the document's exchange declarations into
// catalog.ExchangeSpec values ready for catalog.New.
func (d *Document) BuildCatalogSpecs() ([]catalog.ExchangeSpec, error) {
	specs := make([]catalog.ExchangeSpec, 0, len(d.Exchanges))
	for _, ex := range d.Exchanges {
		spec := catalog.ExchangeSpec{
			ID:     domain.ExchangeID(ex.ID),
			Assets: make([]catalog.AssetSpec, 0, len(ex.Assets)),
		}
		for _, a := range ex.Assets {
			spec.Assets = append(spec.Assets, catalog.AssetSpec{
				NameInternal: a.NameInternal,
				NameExchange: a.NameExchange,
			})
		}
		for _, i := range ex.Instruments {
			instSpec, err := parseInstrumentSpec(i)
			if err != nil {
				return nil, fmt.Errorf("exchange %q instrument %q: %w", ex.ID, i.NameExchange, err)
			}
			spec.Instruments = append(spec.Instruments, instSpec)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseInstrumentSpec(i InstrumentDocument) (catalog.InstrumentSpec, error) {
	tick, err := decimalOrDefault(i.PriceTick, "0.01")
	if err != nil {
		return catalog.InstrumentSpec{}, fmt.Errorf("price_tick: %w", err)
	}
	qtyTick, err := decimalOrDefault(i.QuantityTick, "0.0001")
	if err != nil {
		return catalog.InstrumentSpec{}, fmt.Errorf("quantity_tick: %w", err)
	}
	minNotional, err := decimalOrDefault(i.MinNotional, "0")
	if err != nil {
		return catalog.InstrumentSpec{}, fmt.Errorf("min_notional: %w", err)
	}
	multiplier, err := decimalOrDefault(i.Multiplier, "1")
	if err != nil {
		return catalog.InstrumentSpec{}, fmt.Errorf("multiplier: %w", err)
	}

	kind := domain.InstrumentSpot
	if i.Kind != "" {
		kind = domain.InstrumentKind(i.Kind)
	}

	return catalog.InstrumentSpec{
		NameInternal: i.NameInternal,
		NameExchange: i.NameExchange,
		Kind:         kind,
		QuoteAsset:   i.QuoteAsset,
		BaseAsset:    i.BaseAsset,
		Spec: domain.InstrumentSpec{
			PriceTick:    tick,
			QuantityTick: qtyTick,
			MinNotional:  minNotional,
			Multiplier:   multiplier,
		},
	}, nil
}

func decimalOrDefault(s, def string) (decimal.Decimal, error) {
	if s == "" {
		s = def
	}
	return decimal.NewFromString(s)
}

// BuildStrategy resolves the document's strategy selection to a concrete
// strategy.Strategy. Only the two strategies the engine ships (§4.6) are
// addressable from configuration.
func (d *Document) BuildStrategy() (strategy.Strategy, error) {
	switch d.Strategy.Kind {
	case "", "noop":
		return strategy.NoOp{}, nil
	case "cancel_on_disable":
		return strategy.CancelOnDisable{Inner: strategy.NoOp{}}, nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", d.Strategy.Kind)
	}
}

// BuildRisk resolves the document's risk selection to a concrete
// risk.Checker. Only ApproveAll ships with the engine.
func (d *Document) BuildRisk() (risk.Checker, error) {
	switch d.Risk.Kind {
	case "", "approve_all":
		return risk.ApproveAll{}, nil
	default:
		return nil, fmt.Errorf("unknown risk kind %q", d.Risk.Kind)
	}
}

// InitialTradingState resolves the document's initial_trading field to a
// domain.TradingState, defaulting to Disabled (the engine's safe default).
func (d *Document) InitialTradingState() domain.TradingState {
	if d.InitialTrading == "enabled" {
		return domain.TradingEnabled
	}
	return domain.TradingDisabled
}
