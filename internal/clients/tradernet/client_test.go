package tradernet

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderCallsCorrectEndpointAndReturnsResult(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	var capturedPath string
	var capturedBody PlaceOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))
		resp := ServiceResponse{
			Success: true,
			Data:    json.RawMessage(`{"order_id":"v-1","state":"open"}`),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, log)
	result, err := client.PlaceOrder(PlaceOrderRequest{
		ClientOrderID: "c-1",
		Symbol:        "BTCUSDT",
		Side:          "buy",
		OrderType:     "limit",
		Price:         "100.00",
		Quantity:      "1",
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/orders/place", capturedPath)
	assert.Equal(t, "BTCUSDT", capturedBody.Symbol)
	assert.Equal(t, "v-1", result.OrderID)
	assert.Equal(t, "open", result.State)
}

func TestPlaceOrderReturnsErrorOnMicroserviceFailure(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errMsg := "venue unreachable"
		resp := ServiceResponse{Success: false, Error: &errMsg}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, log)
	_, err := client.PlaceOrder(PlaceOrderRequest{Symbol: "BTCUSDT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "venue unreachable")
}

func TestCancelOrderCallsCorrectEndpoint(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	var capturedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		resp := ServiceResponse{
			Success: true,
			Data:    json.RawMessage(`{"order_id":"v-1","state":"cancelled"}`),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, log)
	result, err := client.CancelOrder("v-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/cancel", capturedPath)
	assert.Equal(t, "cancelled", result.State)
}

func TestHealthCheckReportsDisconnectedWhenUnreachable(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	client := NewClient("http://127.0.0.1:1", log)

	result := client.HealthCheck()
	assert.False(t, result.Connected)
}

func TestHealthCheckParsesConnectedStatus(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", TradernetConnected: true, Timestamp: "now"}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, log)
	result := client.HealthCheck()
	assert.True(t, result.Connected)
}
