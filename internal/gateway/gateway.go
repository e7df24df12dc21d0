// Package gateway embeds an Rt behind an HTTP/WebSocket API: a cell per
// websocket client relays privileged print() output the way
// webitel-im-delivery-service's registry package relays events to a
// connected user's sessions, generalized from per-user cells to a single
// broadcast cell since the runtime has exactly one print stream to fan out.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wasmactors/actorhost/rt"
)

// Server exposes an *rt.Rt over HTTP: POST /v1/impulse to deliver an
// externally originated message, POST /v1/poll to run the poll loop to
// quiescence, GET /v1/snapshot for the invariant-relevant diagnostic state
// (spec §8), and GET /v1/stream to watch privileged print() output live.
type Server struct {
	rt        *rt.Rt
	log       *zap.Logger
	upgrader  websocket.Upgrader
	writeWait time.Duration
}

// New builds a Server around rt. log may be nil.
func New(runtime *rt.Rt, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		rt:  runtime,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Embedding a single-process runtime; the browser side is
			// whatever the operator pointed at it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeWait: 10 * time.Second,
	}
}

// Router builds the chi mux routing to this Server's handlers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/impulse", s.handleImpulse)
		r.Post("/poll", s.handlePoll)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/stream", s.handleStream)
	})
	return r
}

type impulseRequest struct {
	From   uint32            `json:"from"`
	To     uint32            `json:"to"`
	Name   string            `json:"name"`
	Params []json.RawMessage `json:"params"`
}

type impulseResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) handleImpulse(w http.ResponseWriter, r *http.Request) {
	var req impulseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decoding impulse request: "+err.Error(), http.StatusBadRequest)
		return
	}

	values := make([]rt.JSValue, 0, len(req.Params))
	for i, raw := range req.Params {
		v, err := decodeJSValue(raw)
		if err != nil {
			http.Error(w, "decoding param "+strconv.Itoa(i)+": "+err.Error(), http.StatusBadRequest)
			return
		}
		values = append(values, v)
	}

	if err := s.rt.ImpulseJS(r.Context(), rt.Address(req.From), rt.Address(req.To), req.Name, values); err != nil {
		s.log.Warn("impulse failed", zap.String("name", req.Name), zap.Uint32("to", req.To), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, impulseResponse{OK: true})
}

func decodeJSValue(raw json.RawMessage) (rt.JSValue, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return rt.JSValue{Number: &f}, nil
	}
	var other any
	if err := json.Unmarshal(raw, &other); err != nil {
		return rt.JSValue{}, err
	}
	return rt.JSValue{Other: other}, nil
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.Poll(r.Context()); err != nil {
		s.log.Warn("poll failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.rt.Snapshot())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleStream upgrades to a websocket and relays every privileged print()
// call for the lifetime of the connection. Relaying is best-effort: a slow
// client that can't keep up with writeWait gets disconnected rather than
// allowed to build unbounded backpressure into the print sink.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := s.rt.SubscribePrints(64)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go drainClientReads(conn, cancel)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("websocket write failed, closing stream", zap.Error(err))
				return
			}
		}
	}
}

// drainClientReads discards inbound frames (this stream is server-to-client
// only) and cancels cancel once the client disconnects, since gorilla's
// Conn requires an active reader to notice a closed connection.
func drainClientReads(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
