package audit

import (
	"errors"
	"sync"

	"github.com/lumenquant/tradecore/internal/domain"
)

// Replica reconstructs an engine-equivalent state snapshot purely from the
// audit stream, with no access to the live engine. Apply is idempotent
// within a single pass over a strictly increasing sequence; out-of-order
// or duplicate records are rejected so a replica can never silently drift.
type Replica struct {
	mu sync.RWMutex

	lastSequence uint64

	assets       map[domain.AssetIndex]domain.AssetState
	instruments  map[domain.InstrumentIndex]domain.InstrumentState
	connectivity map[domain.ExchangeIndex]domain.ConnectivityState
	orders       map[domain.OrderKey]*domain.Order
	trading      domain.TradingState
	closed       bool
}

// NewReplica returns an empty replica, ready to consume records starting
// from sequence 1.
func NewReplica() *Replica {
	return &Replica{
		assets:       make(map[domain.AssetIndex]domain.AssetState),
		instruments:  make(map[domain.InstrumentIndex]domain.InstrumentState),
		connectivity: make(map[domain.ExchangeIndex]domain.ConnectivityState),
		orders:       make(map[domain.OrderKey]*domain.Order),
		trading:      domain.TradingDisabled,
	}
}

// ErrOutOfOrder is returned by Apply when a record's sequence number is
// not exactly lastSequence+1.
var ErrOutOfOrder = errors.New("audit: record out of sequence")

// Apply folds one record into the replica. Records must arrive in strict
// sequence order starting at 1.
func (r *Replica) Apply(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Sequence != r.lastSequence+1 {
		return ErrOutOfOrder
	}
	r.lastSequence = rec.Sequence

	d := rec.Diff
	for _, u := range d.AssetUpdates {
		r.assets[u.Index] = u.State
	}
	for _, u := range d.InstrumentUpdates {
		r.instruments[u.Index] = u.State
	}
	for _, u := range d.ConnectivityUpdates {
		r.connectivity[u.Index] = u.State
	}
	for _, u := range d.OrderUpdates {
		if u.Order == nil {
			delete(r.orders, u.Key)
		} else {
			r.orders[u.Key] = u.Order
		}
	}
	if d.Kind == DiffTradingStateChanged {
		r.trading = d.Trading
	}
	if d.Kind == DiffShutdown {
		r.closed = true
	}
	return nil
}

// Run drains records from ch, applying each in turn, until the channel is
// closed. It is meant to run in its own goroutine, fed by Stream.Subscribe.
func (r *Replica) Run(ch <-chan Record) error {
	for rec := range ch {
		if err := r.Apply(rec); err != nil {
			return err
		}
	}
	return nil
}

// LastSequence returns the sequence number of the last applied record.
func (r *Replica) LastSequence() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSequence
}

// Closed reports whether the replica has observed the terminal Shutdown
// record.
func (r *Replica) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Asset returns the replica's view of one asset.
func (r *Replica) Asset(idx domain.AssetIndex) domain.AssetState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assets[idx]
}

// Instrument returns the replica's view of one instrument.
func (r *Replica) Instrument(idx domain.InstrumentIndex) domain.InstrumentState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instruments[idx]
}

// Connectivity returns the replica's view of one exchange's connectivity.
func (r *Replica) Connectivity(idx domain.ExchangeIndex) domain.ConnectivityState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connectivity[idx]
}

// Order returns the replica's view of one order, if active.
func (r *Replica) Order(key domain.OrderKey) (*domain.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ord, ok := r.orders[key]
	return ord, ok
}

// Trading returns the replica's view of the trading flag.
func (r *Replica) Trading() domain.TradingState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trading
}
