package mockvenue

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/execution"
)

func TestOpenRequestProducesSnapshotThenFill(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	server := NewServer(log)
	defer server.Close()

	exIdx := domain.ExchangeIndex(0)
	router := execution.NewRouter([]domain.ExchangeIndex{exIdx}, 8, 8)

	adapter, err := NewAdapter(exIdx, server.URL(), router, log)
	require.NoError(t, err)
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go adapter.Run(ctx)

	key := domain.OrderKey{Exchange: exIdx, Instrument: 0, Strategy: "s", ClientID: "c-1"}
	require.NoError(t, router.Send(ctx, domain.NewOpenRequest(domain.OrderRequestOpen{
		Key:      key,
		Side:     domain.SideBuy,
		Price:    decimal.NewFromInt(100),
		Quantity: decimal.NewFromInt(1),
		Kind:     domain.OrderKindLimit,
	})))

	snapshot := <-router.Inbound()
	assert.Equal(t, domain.AccountEventOrderSnapshot, snapshot.Kind)
	assert.Equal(t, domain.OrderOpen, snapshot.State)

	fill := <-router.Inbound()
	assert.Equal(t, domain.AccountEventFill, fill.Kind)
	assert.True(t, fill.FillQuantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, fill.FillPrice.Equal(decimal.NewFromInt(100)))
}

func TestCancelRequestProducesCancelAck(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	server := NewServer(log)
	defer server.Close()

	exIdx := domain.ExchangeIndex(0)
	router := execution.NewRouter([]domain.ExchangeIndex{exIdx}, 8, 8)

	adapter, err := NewAdapter(exIdx, server.URL(), router, log)
	require.NoError(t, err)
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go adapter.Run(ctx)

	key := domain.OrderKey{Exchange: exIdx, Instrument: 0, Strategy: "s", ClientID: "c-1"}
	require.NoError(t, router.Send(ctx, domain.NewCancelRequest(domain.OrderRequestCancel{
		Key:     key,
		OrderID: "mock-c-1",
	})))

	ack := <-router.Inbound()
	assert.Equal(t, domain.AccountEventCancelAck, ack.Kind)
	assert.Equal(t, domain.OrderCancelled, ack.State)
}
