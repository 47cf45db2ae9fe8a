// Package execution implements the router that fans out ExecutionRequests
// to per-exchange adapters and merges their AccountEvents back into a
// single inbound stream for the engine loop.
package execution

import (
	"context"
	"fmt"

	"github.com/lumenquant/tradecore/internal/domain"
)

// Router holds one bounded, blocking-backpressure channel per exchange.
// Adapters are the single consumer of their exchange's channel; the engine
// loop is the single producer across all of them via Send.
type Router struct {
	outbound map[domain.ExchangeIndex]chan domain.ExecutionRequest
	inbound  chan domain.AccountEvent
}

// NewRouter builds a router with one outbound channel per exchange named
// in exchanges, each buffered to capacity, and a single merged inbound
// channel buffered to inboundCapacity.
func NewRouter(exchanges []domain.ExchangeIndex, capacity, inboundCapacity int) *Router {
	r := &Router{
		outbound: make(map[domain.ExchangeIndex]chan domain.ExecutionRequest, len(exchanges)),
		inbound:  make(chan domain.AccountEvent, inboundCapacity),
	}
	for _, e := range exchanges {
		r.outbound[e] = make(chan domain.ExecutionRequest, capacity)
	}
	return r
}

// Send enqueues a request onto its exchange's outbound channel, blocking
// until space is available or ctx is cancelled. No requests are ever
// dropped; backpressure is the only flow-control mechanism.
func (r *Router) Send(ctx context.Context, req domain.ExecutionRequest) error {
	ch, ok := r.outbound[req.Exchange]
	if !ok {
		return fmt.Errorf("execution: no adapter registered for exchange index %d", req.Exchange)
	}
	select {
	case ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outbound returns the receive-only channel an adapter for the given
// exchange should consume from. Adapters are the sole consumer of their
// channel.
func (r *Router) Outbound(exchange domain.ExchangeIndex) (<-chan domain.ExecutionRequest, error) {
	ch, ok := r.outbound[exchange]
	if !ok {
		return nil, fmt.Errorf("execution: no adapter registered for exchange index %d", exchange)
	}
	return ch, nil
}

// Inbound returns the merged channel the engine loop reads AccountEvents
// from. All adapters publish onto it via Publish.
func (r *Router) Inbound() <-chan domain.AccountEvent {
	return r.inbound
}

// Publish is how an adapter hands an AccountEvent back to the engine. It
// blocks if the inbound channel is full, applying the same no-drop
// backpressure policy as Send.
func (r *Router) Publish(ctx context.Context, ev domain.AccountEvent) error {
	select {
	case r.inbound <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes every outbound channel, signalling adapters to stop. It
// does not close the inbound channel, since adapters may still be
// flushing a final AccountEvent during shutdown.
func (r *Router) Close() {
	for _, ch := range r.outbound {
		close(ch)
	}
}
