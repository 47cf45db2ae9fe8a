package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/engine"
)

// handleHealthz is a liveness probe independent of engine state.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ExchangeStatus reports connectivity for one venue in the catalog.
type ExchangeStatus struct {
	Exchange   string `json:"exchange"`
	MarketData string `json:"market_data"`
	Account    string `json:"account"`
}

// StatusResponse is the payload of GET /status.
type StatusResponse struct {
	Trading       string           `json:"trading"`
	Exchanges     []ExchangeStatus `json:"exchanges"`
	PositionCount int              `json:"position_count"`
	OpenOrders    int              `json:"open_orders"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	exchanges := make([]ExchangeStatus, 0, s.cat.NumExchanges())
	for i := 0; i < s.cat.NumExchanges(); i++ {
		idx := domain.ExchangeIndex(i)
		id, err := s.cat.ExchangeID(idx)
		if err != nil {
			continue
		}
		conn, err := s.state.Connectivity(idx)
		if err != nil {
			continue
		}
		exchanges = append(exchanges, ExchangeStatus{
			Exchange:   string(id),
			MarketData: string(conn.MarketData),
			Account:    string(conn.Account),
		})
	}

	positions := s.state.Positions(domain.NoFilter())
	positionCount := 0
	for _, p := range positions {
		if p.Position != nil {
			positionCount++
		}
	}

	orders := s.state.OrdersView(domain.NoFilter())

	s.writeJSON(w, http.StatusOK, StatusResponse{
		Trading:       string(s.state.Trading()),
		Exchanges:     exchanges,
		PositionCount: positionCount,
		OpenOrders:    len(orders),
	})
}

// PositionView is one instrument's position, rendered by internal name.
type PositionView struct {
	Instrument    string          `json:"instrument"`
	Side          string          `json:"side,omitempty"`
	QuantityAbs   decimal.Decimal `json:"quantity_abs"`
	AverageEntry  decimal.Decimal `json:"average_entry"`
	RealisedPnL   decimal.Decimal `json:"realised_pnl"`
	UnrealisedPnL decimal.Decimal `json:"unrealised_pnl"`
	Price         decimal.Decimal `json:"price"`
	HasPrice      bool            `json:"has_price"`
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	insts := s.cat.Instruments()

	views := make([]PositionView, 0)
	for i, inst := range insts {
		st, err := s.state.Instrument(domain.InstrumentIndex(i))
		if err != nil || st.Position == nil {
			continue
		}
		views = append(views, PositionView{
			Instrument:    inst.NameInternal,
			Side:          string(st.Position.Side),
			QuantityAbs:   st.Position.QuantityAbs,
			AverageEntry:  st.Position.AverageEntry,
			RealisedPnL:   st.Position.RealisedPnL,
			UnrealisedPnL: st.Position.UnrealisedPnL,
			Price:         st.Price,
			HasPrice:      st.HasPrice,
		})
	}

	s.writeJSON(w, http.StatusOK, views)
}

// OrderView is one resting or in-flight order, rendered by internal name.
type OrderView struct {
	Instrument string          `json:"instrument"`
	Strategy   string          `json:"strategy"`
	ClientID   string          `json:"client_id"`
	OrderID    string          `json:"order_id"`
	Side       string          `json:"side"`
	Kind       string          `json:"kind"`
	State      string          `json:"state"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Filled     decimal.Decimal `json:"filled"`
	TimeUpdate time.Time       `json:"time_update"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	insts := s.cat.Instruments()
	orders := s.state.OrdersView(domain.NoFilter())

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		name := "unknown"
		if int(o.Key.Instrument) < len(insts) {
			name = insts[o.Key.Instrument].NameInternal
		}
		views = append(views, OrderView{
			Instrument: name,
			Strategy:   string(o.Key.Strategy),
			ClientID:   string(o.Key.ClientID),
			OrderID:    string(o.OrderID),
			Side:       string(o.Side),
			Kind:       string(o.Kind),
			State:      string(o.State),
			Price:      o.Price,
			Quantity:   o.Quantity,
			Filled:     o.Filled,
			TimeUpdate: o.TimeUpdate,
		})
	}

	s.writeJSON(w, http.StatusOK, views)
}

// CommandRequest is the wire shape of POST /commands, mirroring §6.4's
// Command union. Exactly one of the optional fields is read, per Kind.
type CommandRequest struct {
	Kind string `json:"kind"`

	// cancel_orders / close_positions
	Instruments []string `json:"instruments,omitempty"`
	Exchange    string   `json:"exchange,omitempty"`

	// send_open
	Open *OpenRequestBody `json:"open,omitempty"`

	// send_cancel
	Cancel *CancelRequestBody `json:"cancel,omitempty"`
}

// OpenRequestBody mirrors domain.OrderRequestOpen over the wire.
type OpenRequestBody struct {
	Instrument  string          `json:"instrument"`
	Strategy    string          `json:"strategy"`
	ClientID    string          `json:"client_id"`
	Side        string          `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	TimeInForce string          `json:"time_in_force"`
	Kind        string          `json:"kind"`
}

// CancelRequestBody mirrors domain.OrderRequestCancel over the wire.
type CancelRequestBody struct {
	Instrument string `json:"instrument"`
	Strategy   string `json:"strategy"`
	ClientID   string `json:"client_id"`
	OrderID    string `json:"order_id"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cmd, err := s.decodeCommand(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	select {
	case s.commands <- engine.CommandInput(cmd):
	case <-r.Context().Done():
		s.writeError(w, http.StatusRequestTimeout, "request cancelled before command was accepted")
		return
	case <-time.After(5 * time.Second):
		s.writeError(w, http.StatusServiceUnavailable, "engine command channel is full")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) decodeCommand(req CommandRequest) (domain.Command, error) {
	switch domain.CommandKind(req.Kind) {
	case domain.CommandCancelOrders:
		filter, err := s.resolveFilter(req.Exchange, req.Instruments)
		if err != nil {
			return domain.Command{}, err
		}
		return domain.Command{Kind: domain.CommandCancelOrders, Filter: filter}, nil

	case domain.CommandClosePositions:
		filter, err := s.resolveFilter(req.Exchange, req.Instruments)
		if err != nil {
			return domain.Command{}, err
		}
		return domain.Command{Kind: domain.CommandClosePositions, Filter: filter}, nil

	case domain.CommandSendOpen:
		if req.Open == nil {
			return domain.Command{}, errInvalidCommandBody("send_open requires an \"open\" body")
		}
		open, err := s.resolveOpenRequest(*req.Open)
		if err != nil {
			return domain.Command{}, err
		}
		return domain.Command{Kind: domain.CommandSendOpen, Open: open}, nil

	case domain.CommandSendCancel:
		if req.Cancel == nil {
			return domain.Command{}, errInvalidCommandBody("send_cancel requires a \"cancel\" body")
		}
		cancel, err := s.resolveCancelRequest(*req.Cancel)
		if err != nil {
			return domain.Command{}, err
		}
		return domain.Command{Kind: domain.CommandSendCancel, Cancel: cancel}, nil

	case domain.CommandShutdown:
		return domain.Command{Kind: domain.CommandShutdown}, nil

	default:
		return domain.Command{}, errInvalidCommandBody("unknown command kind: " + req.Kind)
	}
}

func (s *Server) resolveFilter(exchangeName string, instrumentNames []string) (domain.Filter, error) {
	if len(instrumentNames) == 0 {
		return domain.NoFilter(), nil
	}
	exIdx, err := s.cat.IndexExchange(domain.ExchangeID(exchangeName))
	if err != nil {
		return domain.Filter{}, err
	}
	idxs := make([]domain.InstrumentIndex, 0, len(instrumentNames))
	for _, name := range instrumentNames {
		idx, err := s.cat.IndexInstrument(exIdx, name)
		if err != nil {
			return domain.Filter{}, err
		}
		idxs = append(idxs, idx)
	}
	return domain.FilterByInstruments(idxs...), nil
}

// resolveOpenRequest and resolveCancelRequest scan every exchange for an
// instrument matching the wire name, since the control API has no other
// way to disambiguate which venue an instrument name belongs to when two
// exchanges happen to share one.
func (s *Server) resolveOpenRequest(body OpenRequestBody) (domain.OrderRequestOpen, error) {
	for i := 0; i < s.cat.NumExchanges(); i++ {
		candidate := domain.ExchangeIndex(i)
		instIdx, err := s.cat.IndexInstrument(candidate, body.Instrument)
		if err != nil {
			continue
		}
		return domain.OrderRequestOpen{
			Key: domain.OrderKey{
				Exchange:   candidate,
				Instrument: instIdx,
				Strategy:   domain.StrategyID(body.Strategy),
				ClientID:   domain.ClientOrderID(body.ClientID),
			},
			Side:        domain.Side(body.Side),
			Price:       body.Price,
			Quantity:    body.Quantity,
			TimeInForce: domain.TimeInForce(body.TimeInForce),
			Kind:        domain.OrderKind(body.Kind),
		}, nil
	}
	return domain.OrderRequestOpen{}, domain.ErrUnknownInstrument
}

func (s *Server) resolveCancelRequest(body CancelRequestBody) (domain.OrderRequestCancel, error) {
	for i := 0; i < s.cat.NumExchanges(); i++ {
		candidate := domain.ExchangeIndex(i)
		instIdx, err := s.cat.IndexInstrument(candidate, body.Instrument)
		if err != nil {
			continue
		}
		return domain.OrderRequestCancel{
			Key: domain.OrderKey{
				Exchange:   candidate,
				Instrument: instIdx,
				Strategy:   domain.StrategyID(body.Strategy),
				ClientID:   domain.ClientOrderID(body.ClientID),
			},
			OrderID: domain.OrderID(body.OrderID),
		}, nil
	}
	return domain.OrderRequestCancel{}, domain.ErrUnknownInstrument
}

type errInvalidCommandBody string

func (e errInvalidCommandBody) Error() string { return string(e) }
