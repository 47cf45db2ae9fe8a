// Package orders implements the order lifecycle state machine described
// in the engine design: an in-flight recorder disjoint from an active
// order table, transitioned exclusively by AccountEvents.
package orders

import (
	"errors"
	"time"

	"github.com/lumenquant/tradecore/internal/domain"
)

// ErrUnknownOrderKey is returned when an AccountEvent references an
// OrderKey the manager has no record of, in-flight or active. Per the
// reconciliation rules this is tolerated by the caller, not treated as
// fatal; it exists so the caller can emit its own warning audit record.
var ErrUnknownOrderKey = errors.New("orders: unknown order key")

// ErrFilledRegressed is returned when a snapshot reports a filled quantity
// lower than one already recorded. The caller logs and ignores.
var ErrFilledRegressed = errors.New("orders: filled quantity regressed")

// Manager owns the in-flight recorder and the active order table. It never
// touches positions or balances directly; callers (the state store) read
// the returned fill/snapshot details and apply position and balance
// arithmetic themselves.
type Manager struct {
	active   map[domain.OrderKey]*domain.Order
	inFlight map[domain.OrderKey]*domain.InFlightRecord
}

// NewManager returns an empty order manager.
func NewManager() *Manager {
	return &Manager{
		active:   make(map[domain.OrderKey]*domain.Order),
		inFlight: make(map[domain.OrderKey]*domain.InFlightRecord),
	}
}

// RecordInFlight registers a just-submitted open request.
func (m *Manager) RecordInFlight(req domain.OrderRequestOpen, at time.Time) {
	m.inFlight[req.Key] = &domain.InFlightRecord{
		Key:        req.Key,
		Request:    req,
		TimeSubmit: at,
	}
}

// RecordInFlightCancel registers a just-submitted cancel request against an
// already-active order, moving it to InFlightCancel.
func (m *Manager) RecordInFlightCancel(req domain.OrderRequestCancel, at time.Time) {
	if ord, ok := m.active[req.Key]; ok {
		ord.State = domain.OrderInFlightCancel
		ord.TimeUpdate = at
	}
	m.inFlight[req.Key] = &domain.InFlightRecord{
		Key:        req.Key,
		CancelOnly: true,
		TimeSubmit: at,
	}
}

// ApplySnapshot reconciles an OrderSnapshot account event. If the key is
// in-flight-open it is promoted into the active table in the Open state;
// if already active, its fields are reconciled (filled is monotonic
// non-decreasing, state may only advance).
func (m *Manager) ApplySnapshot(ev domain.AccountEvent, at time.Time) error {
	if existing, ok := m.active[ev.Key]; ok {
		if ev.Filled.LessThan(existing.Filled) {
			return ErrFilledRegressed
		}
		existing.Filled = ev.Filled
		existing.TimeUpdate = at
		if existing.OrderID == "" {
			existing.OrderID = ev.OrderID
		}
		if ev.State != "" && !existing.State.IsTerminal() {
			existing.State = ev.State
		}
		return nil
	}

	rec, wasInFlight := m.inFlight[ev.Key]
	delete(m.inFlight, ev.Key)

	ord := &domain.Order{
		Key:         ev.Key,
		OrderID:     ev.OrderID,
		State:       domain.OrderOpen,
		Filled:      ev.Filled,
		TimeCreated: at,
		TimeUpdate:  at,
	}
	if wasInFlight && rec.Request.Key == ev.Key {
		ord.Side = rec.Request.Side
		ord.Price = rec.Request.Price
		ord.Quantity = rec.Request.Quantity
		ord.TimeInForce = rec.Request.TimeInForce
		ord.Kind = rec.Request.Kind
	}
	m.active[ev.Key] = ord
	return nil
}

// ApplyFill increments the filled quantity of an active order and returns
// the updated order so the caller can run position and balance arithmetic.
// Returns ErrUnknownOrderKey if the key is not active.
func (m *Manager) ApplyFill(ev domain.AccountEvent, at time.Time) (*domain.Order, error) {
	ord, ok := m.active[ev.Key]
	if !ok {
		return nil, ErrUnknownOrderKey
	}
	ord.Filled = ord.Filled.Add(ev.FillQuantity)
	ord.TimeUpdate = at
	if ord.Filled.GreaterThanOrEqual(ord.Quantity) {
		ord.State = domain.OrderFilled
		delete(m.active, ev.Key)
	} else {
		ord.State = domain.OrderPartiallyFilled
	}
	return ord, nil
}

// ApplyCancelAck moves an active order (including one in InFlightCancel) to
// Cancelled and removes it from the active table, dropping any in-flight
// record for the key. Returns ErrUnknownOrderKey if the key is not in the
// active table, even when an in-flight record for it was dropped.
func (m *Manager) ApplyCancelAck(key domain.OrderKey, at time.Time) error {
	delete(m.inFlight, key)
	ord, ok := m.active[key]
	if !ok {
		return ErrUnknownOrderKey
	}
	ord.State = domain.OrderCancelled
	ord.TimeUpdate = at
	delete(m.active, key)
	return nil
}

// ApplyRejection drops an in-flight-open order and reports it as rejected.
// Returns ErrUnknownOrderKey if the key was not in-flight.
func (m *Manager) ApplyRejection(key domain.OrderKey, reason string, at time.Time) (*domain.Order, error) {
	rec, ok := m.inFlight[key]
	if !ok {
		return nil, ErrUnknownOrderKey
	}
	delete(m.inFlight, key)
	ord := &domain.Order{
		Key:         key,
		State:       domain.OrderRejected,
		TimeCreated: at,
		TimeUpdate:  at,
	}
	if !rec.CancelOnly {
		ord.Side = rec.Request.Side
		ord.Price = rec.Request.Price
		ord.Quantity = rec.Request.Quantity
		ord.TimeInForce = rec.Request.TimeInForce
		ord.Kind = rec.Request.Kind
	}
	return ord, nil
}

// Order returns the active order for a key, if any.
func (m *Manager) Order(key domain.OrderKey) (*domain.Order, bool) {
	ord, ok := m.active[key]
	return ord, ok
}

// InFlight returns the in-flight record for a key, if any.
func (m *Manager) InFlight(key domain.OrderKey) (*domain.InFlightRecord, bool) {
	rec, ok := m.inFlight[key]
	return rec, ok
}

// Orders returns every active order matching the filter's exchange and
// instrument admission rules, in no particular order (callers needing
// index order should sort by OrderKey.Instrument themselves).
func (m *Manager) Orders(match func(domain.OrderKey) bool) []*domain.Order {
	out := make([]*domain.Order, 0, len(m.active))
	for key, ord := range m.active {
		if match == nil || match(key) {
			out = append(out, ord)
		}
	}
	return out
}

// StaleInFlight returns every in-flight-open record submitted more than
// threshold ago, relative to now. A zero threshold disables the check.
func (m *Manager) StaleInFlight(now time.Time, threshold time.Duration) []*domain.InFlightRecord {
	if threshold <= 0 {
		return nil
	}
	var stale []*domain.InFlightRecord
	for _, rec := range m.inFlight {
		if rec.CancelOnly {
			continue
		}
		if now.Sub(rec.TimeSubmit) > threshold {
			stale = append(stale, rec)
		}
	}
	return stale
}
