package tradernet

import (
	"context"
	"time"

	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/execution"
)

// Adapter drives one exchange's leg of an execution.Router against the
// Tradernet microservice: it consumes ExecutionRequests off the router's
// outbound channel for Exchange, translates them into HTTP calls, and
// publishes the resulting AccountEvents back onto the router's inbound
// channel. It never talks to the engine's state store directly.
type Adapter struct {
	Exchange     domain.ExchangeIndex
	Client       *Client
	Catalog      *catalog.Catalog
	Router       *execution.Router
	PollInterval time.Duration
}

// Run consumes the adapter's outbound channel until it is closed or ctx is
// cancelled, and polls connectivity on PollInterval (default one minute).
func (a *Adapter) Run(ctx context.Context) error {
	outbound, err := a.Router.Outbound(a.Exchange)
	if err != nil {
		return err
	}

	interval := a.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.pollConnectivity(ctx)
		case req, ok := <-outbound:
			if !ok {
				return nil
			}
			a.handle(ctx, req)
		}
	}
}

func (a *Adapter) handle(ctx context.Context, req domain.ExecutionRequest) {
	switch req.Kind {
	case domain.ExecutionRequestOpen:
		a.handleOpen(ctx, *req.Open)
	case domain.ExecutionRequestCancel:
		a.handleCancel(ctx, *req.Cancel)
	}
}

func (a *Adapter) handleOpen(ctx context.Context, open domain.OrderRequestOpen) {
	inst, err := a.Catalog.Instrument(open.Key.Instrument)
	if err != nil {
		a.publishRejection(ctx, open.Key, err.Error())
		return
	}

	wireReq := PlaceOrderRequest{
		ClientOrderID: string(open.Key.ClientID),
		Symbol:        inst.NameExchange,
		Side:          string(open.Side),
		OrderType:     wireOrderType(open.Kind),
		Quantity:      open.Quantity.String(),
		TimeInForce:   string(open.TimeInForce),
	}
	if open.Kind != domain.OrderKindMarket {
		wireReq.Price = open.Price.String()
	}

	result, err := a.Client.PlaceOrder(wireReq)
	if err != nil {
		a.publishRejection(ctx, open.Key, err.Error())
		return
	}

	state := wireState(result.State)
	ev := domain.AccountEvent{
		Kind:     domain.AccountEventOrderSnapshot,
		Exchange: a.Exchange,
		Time:     time.Now(),
		Key:      open.Key,
		OrderID:  domain.OrderID(result.OrderID),
		State:    state,
	}
	if state == domain.OrderRejected {
		ev.Kind = domain.AccountEventRejection
		ev.RejectReason = "venue rejected order"
	}
	_ = a.Router.Publish(ctx, ev)
}

func (a *Adapter) handleCancel(ctx context.Context, cancel domain.OrderRequestCancel) {
	result, err := a.Client.CancelOrder(string(cancel.OrderID))
	if err != nil {
		a.publishRejection(ctx, cancel.Key, err.Error())
		return
	}

	_ = a.Router.Publish(ctx, domain.AccountEvent{
		Kind:     domain.AccountEventCancelAck,
		Exchange: a.Exchange,
		Time:     time.Now(),
		Key:      cancel.Key,
		OrderID:  domain.OrderID(result.OrderID),
		State:    wireState(result.State),
	})
}

func (a *Adapter) publishRejection(ctx context.Context, key domain.OrderKey, reason string) {
	_ = a.Router.Publish(ctx, domain.AccountEvent{
		Kind:         domain.AccountEventRejection,
		Exchange:     a.Exchange,
		Time:         time.Now(),
		Key:          key,
		State:        domain.OrderRejected,
		RejectReason: reason,
	})
}

func (a *Adapter) pollConnectivity(ctx context.Context) {
	health := a.Client.HealthCheck()
	status := domain.ConnectivityReconnecting
	if health.Connected {
		status = domain.ConnectivityHealthy
	}
	_ = a.Router.Publish(ctx, domain.AccountEvent{
		Kind:         domain.AccountEventConnectivity,
		Exchange:     a.Exchange,
		Time:         time.Now(),
		Connectivity: status,
	})
}

func wireOrderType(kind domain.OrderKind) string {
	switch kind {
	case domain.OrderKindMarket:
		return "market"
	case domain.OrderKindPostOnly:
		return "post_only"
	case domain.OrderKindImmediate:
		return "immediate_or_cancel"
	default:
		return "limit"
	}
}

func wireState(s string) domain.OrderState {
	switch s {
	case "open":
		return domain.OrderOpen
	case "partially_filled":
		return domain.OrderPartiallyFilled
	case "filled":
		return domain.OrderFilled
	case "cancelled":
		return domain.OrderCancelled
	case "rejected":
		return domain.OrderRejected
	default:
		return domain.OrderInFlightOpen
	}
}
