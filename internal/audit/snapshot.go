package audit

import (
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/state"
)

// SnapshotAssets reads the current value of each given index out of s and
// returns it as AssetUpdates, for embedding in a StateDiff.
func SnapshotAssets(s *state.Store, indices ...domain.AssetIndex) []AssetUpdate {
	out := make([]AssetUpdate, 0, len(indices))
	for _, idx := range indices {
		st, err := s.Asset(idx)
		if err != nil {
			continue
		}
		out = append(out, AssetUpdate{Index: idx, State: st})
	}
	return out
}

// SnapshotInstruments reads the current value of each given index out of s
// and returns it as InstrumentUpdates.
func SnapshotInstruments(s *state.Store, indices ...domain.InstrumentIndex) []InstrumentUpdate {
	out := make([]InstrumentUpdate, 0, len(indices))
	for _, idx := range indices {
		st, err := s.Instrument(idx)
		if err != nil {
			continue
		}
		out = append(out, InstrumentUpdate{Index: idx, State: st})
	}
	return out
}

// SnapshotConnectivity reads the current value of each given exchange out
// of s and returns it as ConnectivityUpdates.
func SnapshotConnectivity(s *state.Store, indices ...domain.ExchangeIndex) []ConnectivityUpdate {
	out := make([]ConnectivityUpdate, 0, len(indices))
	for _, idx := range indices {
		st, err := s.Connectivity(idx)
		if err != nil {
			continue
		}
		out = append(out, ConnectivityUpdate{Index: idx, State: st})
	}
	return out
}

// SnapshotOrder reads the current value of one order key out of s. If the
// key is no longer active, it returns an OrderUpdate with a nil Order, so
// a replica removes it too.
func SnapshotOrder(s *state.Store, key domain.OrderKey) OrderUpdate {
	ord, _ := s.Orders().Order(key)
	return OrderUpdate{Key: key, Order: ord}
}
