package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"beatbox/internal/middleware"
	"beatbox/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

// Connection limit errors returned by Register.
var (
	ErrTooManyUserConnections = errors.New("too many connections for user")
	ErrHubFull                = errors.New("live feed is at capacity")
	ErrHubClosed              = errors.New("live feed is shutting down")
)

// Hub tracks live feed clients per user.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrHubFull
	}
	if len(h.conns[userID]) >= maxConnsPerUser {
		return nil, ErrTooManyUserConnections
	}

	c := NewClient(h, conn, userID)
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*Client]struct{})
	}
	h.conns[userID][c] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return c, nil
}

// UnregisterClient removes c and closes its send channel. Safe to call twice.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, c.UserID)
	}
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	close(c.Send)
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// BroadcastAll queues message for every client and returns how many accepted it.
func (h *Hub) BroadcastAll(message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, set := range h.conns {
		for c := range set {
			if c.TrySend(message) {
				sent++
			}
		}
	}
	return sent
}

// StartWiring relays suggestion events from n to every client.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartEventSubscriber(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown closes every client with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")

	for userID, set := range h.conns {
		for c := range set {
			if c.Conn != nil {
				_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.Conn.WriteMessage(websocket.CloseMessage, msg)
				if err := c.Conn.Close(); err != nil {
					middleware.Logger.Debug("closing feed connection", "user_id", userID, "error", err)
				}
			}
			close(c.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
