package server

import (
	"bytes"
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
	"github.com/lumenquant/tradecore/internal/engine"
	"github.com/lumenquant/tradecore/internal/state"
)

func newTestServer(t *testing.T) (*Server, chan engine.Input) {
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

	st := state.New(cat)
	commands := make(chan engine.Input, 1)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	srv := New(Config{
		Log:      log,
		State:    st,
		Catalog:  cat,
		Commands: commands,
		Port:     0,
		DevMode:  true,
	})
	return srv, commands
}

func TestHandleHealthzReturnsOK(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStatusReportsTradingAndConnectivity(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "disabled", resp.Trading)
	require.Len(t, resp.Exchanges, 1)
	assert.Equal(t, "EX", resp.Exchanges[0].Exchange)
	assert.Equal(t, "healthy", resp.Exchanges[0].MarketData)
}

func TestHandlePositionsReturnsEmptyListWhenFlat(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/positions", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var views []PositionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Empty(t, views)
}

func TestHandleCommandPushesShutdownOntoChannel(t *testing.T) {
	srv, commands := newTestServer(t)

	body, err := json.Marshal(CommandRequest{Kind: string(domain.CommandShutdown)})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/commands", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case in := <-commands:
		assert.Equal(t, engine.InputCommand, in.Kind)
		assert.Equal(t, domain.CommandShutdown, in.Command.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a command on the channel")
	}
}

func TestHandleCommandRejectsUnknownKind(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := json.Marshal(CommandRequest{Kind: "bogus"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/commands", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCommandSendOpenResolvesInstrumentAcrossExchanges(t *testing.T) {
	srv, commands := newTestServer(t)

	body, err := json.Marshal(CommandRequest{
		Kind: string(domain.CommandSendOpen),
		Open: &OpenRequestBody{
			Instrument:  "BTCUSDT",
			Strategy:    "s",
			ClientID:    "c-1",
			Side:        string(domain.SideBuy),
			Price:       decimal.NewFromInt(100),
			Quantity:    decimal.NewFromInt(1),
			TimeInForce: string(domain.TIFGoodTilCancel),
			Kind:        string(domain.OrderKindLimit),
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/commands", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case in := <-commands:
		assert.Equal(t, domain.CommandSendOpen, in.Command.Kind)
		assert.Equal(t, domain.ClientOrderID("c-1"), in.Command.Open.Key.ClientID)
	case <-time.After(time.Second):
		t.Fatal("expected a command on the channel")
	}
}
