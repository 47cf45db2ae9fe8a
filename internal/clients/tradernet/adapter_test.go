package tradernet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/execution"
)

func newTestCatalog(t *testing.T) (*catalog.Catalog, domain.ExchangeIndex, domain.InstrumentIndex) {
	t.Helper()
	cat, err := catalog.New([]catalog.ExchangeSpec{
		{
			ID: "EX",
			Assets: []catalog.AssetSpec{
				{NameInternal: "btc", NameExchange: "BTC"},
				{NameInternal: "usdt", NameExchange: "USDT"},
			},
			Instruments: []catalog.InstrumentSpec{
				{
					NameInternal: "btc-usdt",
					NameExchange: "BTCUSDT",
					Kind:         domain.InstrumentSpot,
					QuoteAsset:   "usdt",
					BaseAsset:    "btc",
					Spec: domain.InstrumentSpec{
						PriceTick:    decimal.NewFromFloat(0.01),
						QuantityTick: decimal.NewFromFloat(0.0001),
						MinNotional:  decimal.NewFromInt(10),
						Multiplier:   decimal.NewFromInt(1),
					},
				},
			},
		},
	})
	require.NoError(t, err)
	exIdx, err := cat.IndexExchange("EX")
	require.NoError(t, err)
	instIdx, err := cat.IndexInstrument(exIdx, "BTCUSDT")
	require.NoError(t, err)
	return cat, exIdx, instIdx
}

func TestAdapterHandleOpenPublishesOrderSnapshotOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ServiceResponse{Success: true, Data: json.RawMessage(`{"order_id":"v-1","state":"open"}`)}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cat, exIdx, instIdx := newTestCatalog(t)
	router := execution.NewRouter([]domain.ExchangeIndex{exIdx}, 4, 4)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	adapter := &Adapter{
		Exchange: exIdx,
		Client:   NewClient(server.URL, log),
		Catalog:  cat,
		Router:   router,
	}

	key := domain.OrderKey{Exchange: exIdx, Instrument: instIdx, Strategy: "s", ClientID: "c-1"}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	adapter.handleOpen(ctx, domain.OrderRequestOpen{
		Key:      key,
		Side:     domain.SideBuy,
		Price:    decimal.NewFromInt(100),
		Quantity: decimal.NewFromInt(1),
		Kind:     domain.OrderKindLimit,
	})

	select {
	case ev := <-router.Inbound():
		assert.Equal(t, domain.AccountEventOrderSnapshot, ev.Kind)
		assert.Equal(t, domain.OrderID("v-1"), ev.OrderID)
		assert.Equal(t, domain.OrderOpen, ev.State)
	case <-ctx.Done():
		t.Fatal("timed out waiting for account event")
	}
}

func TestAdapterHandleOpenPublishesRejectionOnTransportError(t *testing.T) {
	cat, exIdx, instIdx := newTestCatalog(t)
	router := execution.NewRouter([]domain.ExchangeIndex{exIdx}, 4, 4)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	adapter := &Adapter{
		Exchange: exIdx,
		Client:   NewClient("http://127.0.0.1:1", log),
		Catalog:  cat,
		Router:   router,
	}

	key := domain.OrderKey{Exchange: exIdx, Instrument: instIdx, Strategy: "s", ClientID: "c-1"}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	adapter.handleOpen(ctx, domain.OrderRequestOpen{
		Key: key, Side: domain.SideBuy, Price: decimal.NewFromInt(100),
		Quantity: decimal.NewFromInt(1), Kind: domain.OrderKindLimit,
	})

	select {
	case ev := <-router.Inbound():
		assert.Equal(t, domain.AccountEventRejection, ev.Kind)
	case <-ctx.Done():
		t.Fatal("timed out waiting for account event")
	}
}
