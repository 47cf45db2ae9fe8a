package mockvenue

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/execution"
)

// Adapter dials a mockvenue Server and bridges it to one exchange's leg of
// an execution.Router: requests the engine sends flow out over the
// websocket connection, and the venue's confirmations flow back in as
// AccountEvents.
type Adapter struct {
	Exchange domain.ExchangeIndex
	URL      string
	Router   *execution.Router
	log      zerolog.Logger

	conn *websocket.Conn
}

// NewAdapter builds an Adapter for exchange, dialing url (a Server's URL()).
func NewAdapter(exchange domain.ExchangeIndex, url string, router *execution.Router, log zerolog.Logger) (*Adapter, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		Exchange: exchange,
		URL:      url,
		Router:   router,
		log:      log.With().Str("component", "mockvenue_adapter").Logger(),
		conn:     conn,
	}, nil
}

// Run forwards outbound requests to the venue and venue confirmations back
// into the router until ctx is cancelled or the connection closes.
func (a *Adapter) Run(ctx context.Context) error {
	outbound, err := a.Router.Outbound(a.Exchange)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go a.readLoop(ctx, done)

	for {
		select {
		case <-ctx.Done():
			a.conn.Close()
			return ctx.Err()
		case <-done:
			return nil
		case req, ok := <-outbound:
			if !ok {
				a.conn.Close()
				return nil
			}
			if err := a.conn.WriteJSON(req); err != nil {
				a.log.Error().Err(err).Msg("mockvenue adapter: write failed")
			}
		}
	}
}

func (a *Adapter) readLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		var ev domain.AccountEvent
		if err := a.conn.ReadJSON(&ev); err != nil {
			return
		}
		if ev.Time.IsZero() {
			ev.Time = time.Now()
		}
		if err := a.Router.Publish(ctx, ev); err != nil {
			return
		}
	}
}

// Close closes the underlying websocket connection.
func (a *Adapter) Close() error {
	return a.conn.Close()
}
