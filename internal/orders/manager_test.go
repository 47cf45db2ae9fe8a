package orders

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquant/tradecore/internal/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func sampleKey() domain.OrderKey {
	return domain.OrderKey{
		Exchange:   0,
		Instrument: 0,
		Strategy:   "manual",
		ClientID:   "client-1",
	}
}

func TestOpenPartialFullFillLifecycle(t *testing.T) {
	m := NewManager()
	key := sampleKey()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	req := domain.OrderRequestOpen{
		Key:         key,
		Side:        domain.SideBuy,
		Price:       d("50000"),
		Quantity:    d("0.2"),
		TimeInForce: domain.TIFGoodTilCancel,
		Kind:        domain.OrderKindLimit,
	}
	m.RecordInFlight(req, now)
	_, ok := m.InFlight(key)
	require.True(t, ok)

	err := m.ApplySnapshot(domain.AccountEvent{Key: key, OrderID: "venue-1", State: domain.OrderOpen}, now)
	require.NoError(t, err)

	ord, ok := m.Order(key)
	require.True(t, ok)
	assert.Equal(t, domain.OrderOpen, ord.State)
	assert.True(t, ord.Filled.IsZero())

	fill1, err := m.ApplyFill(domain.AccountEvent{Key: key, FillQuantity: d("0.1"), FillPrice: d("50000")}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPartiallyFilled, fill1.State)
	assert.True(t, fill1.Filled.Equal(d("0.1")))

	fill2, err := m.ApplyFill(domain.AccountEvent{Key: key, FillQuantity: d("0.1"), FillPrice: d("50000")}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFilled, fill2.State)
	assert.True(t, fill2.Filled.Equal(d("0.2")))

	_, ok = m.Order(key)
	assert.False(t, ok, "filled order must leave the active table")
}

func TestApplyFillUnknownKeyReturnsError(t *testing.T) {
	m := NewManager()
	_, err := m.ApplyFill(domain.AccountEvent{Key: sampleKey(), FillQuantity: d("1")}, time.Now())
	assert.ErrorIs(t, err, ErrUnknownOrderKey)
}

func TestApplyRejectionUnknownKeyReturnsError(t *testing.T) {
	m := NewManager()
	_, err := m.ApplyRejection(sampleKey(), "no-such-order", time.Now())
	assert.ErrorIs(t, err, ErrUnknownOrderKey)
}

func TestApplyRejectionDropsInFlight(t *testing.T) {
	m := NewManager()
	key := sampleKey()
	now := time.Now()
	m.RecordInFlight(domain.OrderRequestOpen{Key: key, Side: domain.SideBuy, Quantity: d("1")}, now)

	ord, err := m.ApplyRejection(key, "insufficient margin", now)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRejected, ord.State)

	_, ok := m.InFlight(key)
	assert.False(t, ok)
}

func TestSnapshotFilledRegressionIsRejected(t *testing.T) {
	m := NewManager()
	key := sampleKey()
	now := time.Now()

	m.RecordInFlight(domain.OrderRequestOpen{Key: key, Quantity: d("1")}, now)
	require.NoError(t, m.ApplySnapshot(domain.AccountEvent{Key: key, State: domain.OrderOpen, Filled: d("0.5")}, now))

	err := m.ApplySnapshot(domain.AccountEvent{Key: key, State: domain.OrderOpen, Filled: d("0.1")}, now)
	assert.ErrorIs(t, err, ErrFilledRegressed)

	ord, _ := m.Order(key)
	assert.True(t, ord.Filled.Equal(d("0.5")), "regressed snapshot must not mutate filled")
}

func TestRecordInFlightCancelMovesActiveOrderToInFlightCancel(t *testing.T) {
	m := NewManager()
	key := sampleKey()
	now := time.Now()

	m.RecordInFlight(domain.OrderRequestOpen{Key: key, Quantity: d("1")}, now)
	require.NoError(t, m.ApplySnapshot(domain.AccountEvent{Key: key, OrderID: "venue-1", State: domain.OrderOpen}, now))

	m.RecordInFlightCancel(domain.OrderRequestCancel{Key: key, OrderID: "venue-1"}, now)
	ord, ok := m.Order(key)
	require.True(t, ok)
	assert.Equal(t, domain.OrderInFlightCancel, ord.State)

	require.NoError(t, m.ApplyCancelAck(key, now))
	_, stillActive := m.Order(key)
	assert.False(t, stillActive)
}

func TestStaleInFlightRespectsThreshold(t *testing.T) {
	m := NewManager()
	key := sampleKey()
	submitted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.RecordInFlight(domain.OrderRequestOpen{Key: key, Quantity: d("1")}, submitted)

	now := submitted.Add(time.Minute)
	assert.Empty(t, m.StaleInFlight(now, 5*time.Minute))
	assert.Len(t, m.StaleInFlight(now, 30*time.Second), 1)
	assert.Empty(t, m.StaleInFlight(now, 0), "zero threshold disables the check")
}
