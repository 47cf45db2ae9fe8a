// Package mockvenue is a loopback execution venue: a local websocket server
// that accepts domain.ExecutionRequest values and immediately answers with
// the domain.AccountEvent confirmations a real venue would eventually send,
// plus the Adapter that speaks the router side of that same wire protocol.
// It carries no auth, signing or retry logic — it exists only to give the
// venue adapter contract (§4.8) a concrete, runnable shape for integration
// tests and backtests.
package mockvenue

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/internal/domain"
)

// Server is a websocket venue that fills every order it receives at the
// requested price (or at FillPrice for market orders) for the full
// requested quantity, and acknowledges every cancel immediately.
type Server struct {
	httpServer *httptest.Server
	upgrader   websocket.Upgrader
	log        zerolog.Logger

	FillPrice decimal.Decimal

	connsMu sync.Mutex
	conns   map[*websocket.Conn]bool
}

// NewServer starts a mock venue listening on a local ephemeral port.
func NewServer(log zerolog.Logger) *Server {
	s := &Server{
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:       log.With().Str("component", "mockvenue").Logger(),
		FillPrice: decimal.NewFromInt(100),
		conns:     make(map[*websocket.Conn]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = httptest.NewServer(mux)
	return s
}

// URL returns the websocket URL clients should dial.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + "/ws"
}

// Close shuts down the server and every connection it accepted.
func (s *Server) Close() {
	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[*websocket.Conn]bool)
	s.connsMu.Unlock()
	s.httpServer.Close()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("mockvenue: upgrade failed")
		return
	}

	s.connsMu.Lock()
	s.conns[conn] = true
	s.connsMu.Unlock()

	defer func() {
		s.connsMu.Lock()
		delete(s.conns, conn)
		s.connsMu.Unlock()
		conn.Close()
	}()

	for {
		var req domain.ExecutionRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		for _, ev := range s.respond(req) {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) respond(req domain.ExecutionRequest) []domain.AccountEvent {
	now := time.Now()
	switch req.Kind {
	case domain.ExecutionRequestOpen:
		open := *req.Open
		price := open.Price
		if open.Kind == domain.OrderKindMarket {
			price = s.FillPrice
		}
		return []domain.AccountEvent{
			{
				Kind:     domain.AccountEventOrderSnapshot,
				Exchange: req.Exchange,
				Time:     now,
				Key:      open.Key,
				OrderID:  domain.OrderID("mock-" + string(open.Key.ClientID)),
				State:    domain.OrderOpen,
			},
			{
				Kind:         domain.AccountEventFill,
				Exchange:     req.Exchange,
				Time:         now,
				Key:          open.Key,
				OrderID:      domain.OrderID("mock-" + string(open.Key.ClientID)),
				State:        domain.OrderFilled,
				Filled:       open.Quantity,
				FillPrice:    price,
				FillQuantity: open.Quantity,
				FillSide:     open.Side,
				FillFees:     decimal.Zero,
			},
		}
	case domain.ExecutionRequestCancel:
		cancel := *req.Cancel
		return []domain.AccountEvent{
			{
				Kind:     domain.AccountEventCancelAck,
				Exchange: req.Exchange,
				Time:     now,
				Key:      cancel.Key,
				OrderID:  cancel.OrderID,
				State:    domain.OrderCancelled,
			},
		}
	default:
		return nil
	}
}
