// Package realtime accepts trades over a websocket, persists them and
// fans them out to every connected client and configured publisher.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/observability"
	"solana-pnl-tracker/internal/storage"
)

const publishTimeout = 5 * time.Second

// inboundTrade is the wire shape clients submit. TradeID and Timestamp
// are assigned server-side and ignored if present.
type inboundTrade struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
	Trader string  `json:"trader"`
	Action string  `json:"action"`
}

// Options configures a Hub. Trades is required.
type Options struct {
	Trades     storage.TradeStore
	Publishers []Publisher
	Logger     *log.Logger
	Metrics    *observability.Metrics
}

// Hub upgrades HTTP connections to websockets, reads trade submissions
// and broadcasts every accepted trade to all connected clients.
type Hub struct {
	trades     storage.TradeStore
	publishers []Publisher
	logger     *log.Logger
	metrics    *observability.Metrics

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates a hub with no connected clients.
func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[realtime] ", log.LstdFlags)
	}
	return &Hub{
		trades:     opts.Trades,
		publishers: opts.Publishers,
		logger:     logger,
		metrics:    opts.Metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades the connection and reads trades until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade: %v", err)
		return
	}
	h.register(conn)
	defer h.unregister(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Printf("websocket read: %v", err)
			}
			return
		}
		h.handleMessage(r.Context(), data)
	}
}

// Broadcast sends a trade to every connected client. Clients that fail
// the write are dropped. Safe to call from outside the read loop, for
// trades created through the GraphQL mutation.
func (h *Hub) Broadcast(t *domain.TradeRecord) {
	data, err := json.Marshal(t)
	if err != nil {
		h.logger.Printf("marshal broadcast trade %s: %v", t.TradeID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("broadcast to client: %v", err)
			conn.Close()
			delete(h.clients, conn)
			if h.metrics != nil {
				h.metrics.WebsocketClients.Dec()
			}
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and closes the publishers. The hub owns
// its publishers; calling Close more than once closes each only once.
func (h *Hub) Close() error {
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	pubs := h.publishers
	h.publishers = nil
	h.mu.Unlock()

	var firstErr error
	for _, pub := range pubs {
		if err := pub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WebsocketClients.Inc()
	}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		if h.metrics != nil {
			h.metrics.WebsocketClients.Dec()
		}
	}
	h.mu.Unlock()
	conn.Close()
}

// handleMessage validates one submission, persists it and fans it out.
// Malformed submissions are logged and dropped without closing the
// connection.
func (h *Hub) handleMessage(ctx context.Context, data []byte) {
	var in inboundTrade
	if err := json.Unmarshal(data, &in); err != nil {
		h.logger.Printf("unmarshal trade submission: %v", err)
		return
	}

	action := domain.TradeDirection(in.Action)
	if action != domain.TradeBuy && action != domain.TradeSell {
		h.logger.Printf("trade submission with invalid action %q dropped", in.Action)
		return
	}
	if in.Trader == "" {
		h.logger.Print("trade submission without trader dropped")
		return
	}

	trade := &domain.TradeRecord{
		TradeID:   uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Price:     in.Price,
		Volume:    in.Volume,
		Trader:    in.Trader,
		Action:    action,
	}

	if err := h.trades.Insert(ctx, trade); err != nil {
		h.logger.Printf("store trade %s: %v", trade.TradeID, err)
		return
	}
	if h.metrics != nil {
		h.metrics.TradesIngested.Inc()
	}

	h.publish(trade)
	h.Broadcast(trade)
}

// publish forwards the trade to each publisher in the background so a
// slow broker never stalls the read loop.
func (h *Hub) publish(trade *domain.TradeRecord) {
	h.mu.Lock()
	pubs := h.publishers
	h.mu.Unlock()
	for _, pub := range pubs {
		go func(pub Publisher) {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := pub.Publish(ctx, trade); err != nil {
				h.logger.Printf("publish trade %s: %v", trade.TradeID, err)
			}
		}(pub)
	}
}
