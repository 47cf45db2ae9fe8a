package config

import "fmt"

// Document is the declarative system configuration read at startup (§6.6):
// the full catalog, adapter bindings, strategy/risk parameters, the
// initial trading state and the audit-enablement flag. All fields have
// documented defaults below; LoadDocument rejects unknown YAML keys.
type Document struct {
	Exchanges       []ExchangeDocument `yaml:"exchanges"`
	Adapters        []AdapterBinding   `yaml:"adapters"`
	Strategy        StrategyParams     `yaml:"strategy"`
	Risk            RiskParams         `yaml:"risk"`
	InitialTrading  string             `yaml:"initial_trading"`
	AuditEnabled    bool               `yaml:"audit_enabled"`
	AuditPersistDSN string             `yaml:"audit_persist_dsn"`
}

// ExchangeDocument declares one exchange's assets and instruments, mapping
// directly onto catalog.ExchangeSpec.
type ExchangeDocument struct {
	ID          string               `yaml:"id"`
	Assets      []AssetDocument      `yaml:"assets"`
	Instruments []InstrumentDocument `yaml:"instruments"`
}

// AssetDocument declares one asset.
type AssetDocument struct {
	NameInternal string `yaml:"name_internal"`
	NameExchange string `yaml:"name_exchange"`
}

// InstrumentDocument declares one instrument and its trading spec.
type InstrumentDocument struct {
	NameInternal string         `yaml:"name_internal"`
	NameExchange string         `yaml:"name_exchange"`
	Kind         string         `yaml:"kind"`
	QuoteAsset   string         `yaml:"quote_asset"`
	BaseAsset    string         `yaml:"base_asset"`
	PriceTick    string         `yaml:"price_tick"`
	QuantityTick string         `yaml:"quantity_tick"`
	MinNotional  string         `yaml:"min_notional"`
	Multiplier   string         `yaml:"multiplier"`
}

// AdapterBinding names the execution adapter backing one exchange.
type AdapterBinding struct {
	Exchange string            `yaml:"exchange"`
	Kind     string            `yaml:"kind"` // "mockvenue", "tradernet"
	Options  map[string]string `yaml:"options"`
}

// StrategyParams names the strategy implementation and its parameters.
// The engine ships only NoOp and CancelOnDisable (§4.6); "kind" selects
// between them, "wrapped" (only meaningful for cancel_on_disable) selects
// the inner strategy.
type StrategyParams struct {
	Kind    string `yaml:"kind"`
	Wrapped string `yaml:"wrapped"`
}

// RiskParams names the risk checker. The engine ships only ApproveAll.
type RiskParams struct {
	Kind string `yaml:"kind"`
}

// Validate rejects a document with invalid or missing required fields.
// Empty optional fields (Adapters, InitialTrading, Strategy.Kind,
// Risk.Kind, AuditEnabled) are defaulted lazily by BuildStrategy,
// BuildRisk and InitialTradingState rather than up front, so Validate
// only rejects values that are present but malformed.
func (d *Document) Validate() error {
	if len(d.Exchanges) == 0 {
		return fmt.Errorf("at least one exchange is required")
	}
	seen := make(map[string]bool, len(d.Exchanges))
	for _, ex := range d.Exchanges {
		if ex.ID == "" {
			return fmt.Errorf("exchange with empty id")
		}
		if seen[ex.ID] {
			return fmt.Errorf("duplicate exchange id %q", ex.ID)
		}
		seen[ex.ID] = true
	}
	switch d.InitialTrading {
	case "", "enabled", "disabled":
	default:
		return fmt.Errorf("initial_trading must be \"enabled\" or \"disabled\", got %q", d.InitialTrading)
	}
	switch d.Strategy.Kind {
	case "", "noop", "cancel_on_disable":
	default:
		return fmt.Errorf("strategy.kind %q is not one of noop, cancel_on_disable", d.Strategy.Kind)
	}
	return nil
}
