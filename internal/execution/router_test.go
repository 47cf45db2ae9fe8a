package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquant/tradecore/internal/domain"
)

func TestSendRoutesToCorrectExchangeChannel(t *testing.T) {
	r := NewRouter([]domain.ExchangeIndex{0, 1}, 4, 4)

	req := domain.NewOpenRequest(domain.OrderRequestOpen{Key: domain.OrderKey{Exchange: 1}})
	require.NoError(t, r.Send(context.Background(), req))

	ch0, err := r.Outbound(0)
	require.NoError(t, err)
	ch1, err := r.Outbound(1)
	require.NoError(t, err)

	select {
	case <-ch0:
		t.Fatal("request for exchange 1 leaked onto exchange 0's channel")
	default:
	}

	select {
	case got := <-ch1:
		assert.Equal(t, req, got)
	default:
		t.Fatal("expected request on exchange 1's channel")
	}
}

func TestSendUnknownExchangeErrors(t *testing.T) {
	r := NewRouter([]domain.ExchangeIndex{0}, 1, 1)
	err := r.Send(context.Background(), domain.NewOpenRequest(domain.OrderRequestOpen{Key: domain.OrderKey{Exchange: 7}}))
	assert.Error(t, err)
}

func TestSendBlocksWhenChannelFullUntilContextCancelled(t *testing.T) {
	r := NewRouter([]domain.ExchangeIndex{0}, 1, 1)
	req := domain.NewOpenRequest(domain.OrderRequestOpen{Key: domain.OrderKey{Exchange: 0}})
	require.NoError(t, r.Send(context.Background(), req))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Send(ctx, req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishAndInbound(t *testing.T) {
	r := NewRouter([]domain.ExchangeIndex{0}, 1, 4)
	ev := domain.AccountEvent{Kind: domain.AccountEventFill}

	require.NoError(t, r.Publish(context.Background(), ev))
	select {
	case got := <-r.Inbound():
		assert.Equal(t, ev, got)
	default:
		t.Fatal("expected event on inbound channel")
	}
}
