// Package messaging pushes realtime wallet and market events to
// WebSocket subscribers, one room per wallet plus a shared rates room.
package messaging

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/metrics"
)

// Event type names pushed to subscribers.
const (
	EventConnected         = "connected"
	EventSubscribed        = "subscribed"
	EventBalanceUpdated    = "balance_updated"
	EventNewTransaction    = "new_transaction"
	EventProposalCreated   = "proposal_created"
	EventProposalApproved  = "proposal_approved"
	EventProposalFinalized = "proposal_finalized"
	EventRateUpdated       = "exchange_rate_updated"
)

// RatesRoom receives every exchange rate update.
const RatesRoom = "rates"

// WalletRoom names the room carrying one wallet's events.
func WalletRoom(address string) string {
	return "wallet:" + address
}

// Event is the wire envelope for every push.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// client serializes writes to one connection; gorilla allows a single
// concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks room subscriptions and fans events out to them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]bool)}
}

func (h *Hub) register(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*client]bool)
	}
	h.rooms[room][c] = true
	metrics.WSClients.Inc()
}

func (h *Hub) unregister(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[room]; ok {
		if clients[c] {
			metrics.WSClients.Dec()
		}
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast pushes an event to every subscriber of a room. Slow or
// dead connections never fail the caller; they are dropped by their
// own read loops.
func (h *Hub) Broadcast(room, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("Failed to marshal ws event")
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.send(payload)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeRoom upgrades the request and parks the connection in a room
// until the client goes away. The protocol is server push only; client
// messages are discarded.
func (h *Hub) ServeRoom(c echo.Context, room string) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: ws}
	h.register(room, cl)

	if hello, err := json.Marshal(Event{Type: EventConnected, Data: echo.Map{"message": "Connected to CoinPurse"}}); err == nil {
		cl.send(hello)
	}
	if sub, err := json.Marshal(Event{Type: EventSubscribed, Data: echo.Map{"room": room}}); err == nil {
		cl.send(sub)
	}

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.unregister(room, cl)
			_ = ws.Close()
			break
		}
	}
	return nil
}
