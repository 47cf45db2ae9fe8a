package state

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/internal/domain"
)

// UpdateFromMarket absorbs a MarketEvent. Trade and BookTop events update
// the instrument's last price and trigger an unrealised-PnL recompute on
// its position, if any. Connectivity events update the exchange's
// market-data health.
func (s *Store) UpdateFromMarket(ev domain.MarketEvent) error {
	switch ev.Kind {
	case domain.MarketEventTrade:
		return s.applyPrice(ev.Instrument, ev.TradePrice, ev.Time)
	case domain.MarketEventBookTop:
		mid := ev.BestBid.Add(ev.BestAsk).Div(decimalTwo)
		return s.applyPrice(ev.Instrument, mid, ev.Time)
	case domain.MarketEventConnectivity:
		if int(ev.Exchange) < 0 || int(ev.Exchange) >= len(s.connectivity) {
			return domain.ErrIndexOutOfRange
		}
		s.connectivity[ev.Exchange].MarketData = ev.Connectivity
	}
	return nil
}

func (s *Store) applyPrice(idx domain.InstrumentIndex, price decimal.Decimal, at time.Time) error {
	if int(idx) < 0 || int(idx) >= len(s.instruments) {
		return domain.ErrIndexOutOfRange
	}
	st := s.ensureInstrument(idx)
	st.Price = price
	st.HasPrice = true
	st.MarketData.TimeExchange = at
	if st.Position != nil {
		recomputeUnrealised(st.Position, price)
	}
	return nil
}
