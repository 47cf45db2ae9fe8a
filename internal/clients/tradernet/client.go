// Package tradernet is an execution-adapter client for a Tradernet-backed
// order-routing microservice: thin HTTP plumbing plus an Adapter that
// drives one exchange's execution.Router leg from it.
package tradernet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the Tradernet order-routing microservice over HTTP.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	apiKey    string
	apiSecret string
}

// ServiceResponse is the microservice's standard response envelope.
type ServiceResponse struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *string         `json:"error"`
	Timestamp string          `json:"timestamp"`
}

// NewClient builds a Client pointed at baseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "tradernet").Logger(),
	}
}

// SetCredentials sets the API credentials attached to every request.
func (c *Client) SetCredentials(apiKey, apiSecret string) {
	c.apiKey = apiKey
	c.apiSecret = apiSecret
}

func (c *Client) post(endpoint string, request interface{}) (*ServiceResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachCredentials(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp)
}

func (c *Client) get(endpoint string) (*ServiceResponse, error) {
	req, err := http.NewRequest("GET", c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.attachCredentials(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp)
}

func (c *Client) attachCredentials(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Tradernet-API-Key", c.apiKey)
	}
	if c.apiSecret != "" {
		req.Header.Set("X-Tradernet-API-Secret", c.apiSecret)
	}
}

func (c *Client) parseResponse(resp *http.Response) (*ServiceResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result ServiceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.Success {
		errMsg := "unknown error"
		if result.Error != nil {
			errMsg = *result.Error
		}
		return &result, fmt.Errorf("microservice error: %s", errMsg)
	}

	return &result, nil
}

// PlaceOrderRequest is the wire request for placing an order.
type PlaceOrderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	OrderType     string `json:"order_type"`
	Price         string `json:"price,omitempty"`
	Quantity      string `json:"quantity"`
	TimeInForce   string `json:"time_in_force,omitempty"`
}

// PlaceOrderResult is the venue's initial acknowledgement of a new order.
type PlaceOrderResult struct {
	OrderID string `json:"order_id"`
	State   string `json:"state"`
}

// PlaceOrder submits a new order to the venue and returns its initial
// acknowledgement. A non-nil error means the request itself failed
// (network, malformed response); a venue-side rejection is reported as a
// successful response with State == "rejected".
func (c *Client) PlaceOrder(req PlaceOrderRequest) (*PlaceOrderResult, error) {
	resp, err := c.post("/api/orders/place", req)
	if err != nil {
		return nil, err
	}

	var result PlaceOrderResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse order result: %w", err)
	}
	return &result, nil
}

// CancelOrderRequest is the wire request for cancelling a resting order.
type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

// CancelOrderResult is the venue's acknowledgement of a cancel request.
type CancelOrderResult struct {
	OrderID string `json:"order_id"`
	State   string `json:"state"`
}

// CancelOrder asks the venue to cancel a resting order.
func (c *Client) CancelOrder(orderID string) (*CancelOrderResult, error) {
	resp, err := c.post("/api/orders/cancel", CancelOrderRequest{OrderID: orderID})
	if err != nil {
		return nil, err
	}

	var result CancelOrderResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse cancel result: %w", err)
	}
	return &result, nil
}

// HealthResponse is the microservice's unwrapped health-check payload.
type HealthResponse struct {
	Status             string `json:"status"`
	TradernetConnected bool   `json:"tradernet_connected"`
	Timestamp          string `json:"timestamp"`
}

// HealthCheckResult reports whether the venue connection is up.
type HealthCheckResult struct {
	Connected bool
	Timestamp string
}

// HealthCheck probes the microservice's unwrapped /health endpoint. It
// never returns an error: an unreachable service is reported as
// Connected == false, not as a failure, since it is polled continuously
// by the connectivity adapter loop.
func (c *Client) HealthCheck() *HealthCheckResult {
	disconnected := &HealthCheckResult{Connected: false, Timestamp: time.Now().Format(time.RFC3339)}

	req, err := http.NewRequest("GET", c.baseURL+"/health", nil)
	if err != nil {
		return disconnected
	}
	c.attachCredentials(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("tradernet health check unreachable")
		return disconnected
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return disconnected
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return disconnected
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return disconnected
	}

	return &HealthCheckResult{Connected: health.TradernetConnected, Timestamp: health.Timestamp}
}
