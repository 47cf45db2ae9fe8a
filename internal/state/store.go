// Package state holds the engine's mutable state: balances, positions,
// connectivity, the trading flag and the order book. It is mutated
// exclusively by the engine loop, one event at a time, and exposes
// filtered read views for strategy, risk and the HTTP status surface.
package state

import (
	"time"

	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/orders"
)

// Store is the engine's single mutable state container. It is not safe for
// concurrent use; the engine loop is its only writer.
type Store struct {
	cat *catalog.Catalog

	assets       []domain.AssetState
	instruments  []domain.InstrumentState
	connectivity []domain.ConnectivityState

	orders *orders.Manager

	trading  domain.TradingState
	userData interface{}
}

// New builds an empty store sized to the catalog's index ranges. Every
// asset starts with a zero balance, every instrument flat with no price,
// every exchange connectivity Healthy, and trading Disabled until a
// SetTrading command or the engine's startup sequence enables it.
func New(cat *catalog.Catalog) *Store {
	s := &Store{
		cat:          cat,
		assets:       make([]domain.AssetState, cat.NumAssets()),
		instruments:  make([]domain.InstrumentState, cat.NumInstruments()),
		connectivity: make([]domain.ConnectivityState, cat.NumExchanges()),
		orders:       orders.NewManager(),
		trading:      domain.TradingDisabled,
	}
	for i := range s.connectivity {
		s.connectivity[i] = domain.ConnectivityState{
			MarketData: domain.ConnectivityHealthy,
			Account:    domain.ConnectivityHealthy,
		}
	}
	return s
}

// Catalog returns the catalog this store was built against.
func (s *Store) Catalog() *catalog.Catalog { return s.cat }

// Orders returns the order manager backing this store.
func (s *Store) Orders() *orders.Manager { return s.orders }

// Trading returns the current trading flag.
func (s *Store) Trading() domain.TradingState { return s.trading }

// SetTrading sets the trading flag. Returns true if the value actually
// changed, so the caller can decide whether to invoke the
// on_trading_disabled hook.
func (s *Store) SetTrading(t domain.TradingState) (changed bool) {
	changed = s.trading != t
	s.trading = t
	return changed
}

// UserData returns the opaque, engine-unaware payload passed to strategy
// and risk on every tick.
func (s *Store) UserData() interface{} { return s.userData }

// SetUserData replaces the opaque payload.
func (s *Store) SetUserData(v interface{}) { s.userData = v }

// Asset returns a copy of one asset's state.
func (s *Store) Asset(idx domain.AssetIndex) (domain.AssetState, error) {
	if int(idx) < 0 || int(idx) >= len(s.assets) {
		return domain.AssetState{}, domain.ErrIndexOutOfRange
	}
	return s.assets[idx], nil
}

// Instrument returns a copy of one instrument's state.
func (s *Store) Instrument(idx domain.InstrumentIndex) (domain.InstrumentState, error) {
	if int(idx) < 0 || int(idx) >= len(s.instruments) {
		return domain.InstrumentState{}, domain.ErrIndexOutOfRange
	}
	return s.instruments[idx], nil
}

// Connectivity returns a copy of one exchange's connectivity state.
func (s *Store) Connectivity(idx domain.ExchangeIndex) (domain.ConnectivityState, error) {
	if int(idx) < 0 || int(idx) >= len(s.connectivity) {
		return domain.ConnectivityState{}, domain.ErrIndexOutOfRange
	}
	return s.connectivity[idx], nil
}

// Balances returns every asset index admitted by filter, in ascending
// index order, alongside its state.
func (s *Store) Balances(filter domain.Filter) []domain.AssetState {
	out := make([]domain.AssetState, 0, len(s.assets))
	for idx, st := range s.assets {
		asset, err := s.cat.Asset(domain.AssetIndex(idx))
		if err != nil {
			continue
		}
		if !filter.MatchesExchange(asset.Exchange) {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Positions returns every instrument index admitted by filter that
// currently carries a non-nil position, in ascending index order.
func (s *Store) Positions(filter domain.Filter) []domain.InstrumentState {
	out := make([]domain.InstrumentState, 0)
	for idx, st := range s.instruments {
		if st.Position == nil {
			continue
		}
		inst, err := s.cat.Instrument(domain.InstrumentIndex(idx))
		if err != nil {
			continue
		}
		if !filter.MatchesInstrument(*inst) {
			continue
		}
		out = append(out, st)
	}
	return out
}

// OrdersView returns every active order admitted by filter.
func (s *Store) OrdersView(filter domain.Filter) []*domain.Order {
	return s.orders.Orders(func(key domain.OrderKey) bool {
		inst, err := s.cat.Instrument(key.Instrument)
		if err != nil {
			return false
		}
		return filter.MatchesInstrument(*inst)
	})
}

// RecordInFlight registers a just-submitted open request.
func (s *Store) RecordInFlight(req domain.OrderRequestOpen, at time.Time) {
	s.orders.RecordInFlight(req, at)
}

// RecordInFlightCancel registers a just-submitted cancel request.
func (s *Store) RecordInFlightCancel(req domain.OrderRequestCancel, at time.Time) {
	s.orders.RecordInFlightCancel(req, at)
}

func (s *Store) ensureInstrument(idx domain.InstrumentIndex) *domain.InstrumentState {
	return &s.instruments[idx]
}

func (s *Store) ensureAsset(idx domain.AssetIndex) *domain.AssetState {
	return &s.assets[idx]
}
