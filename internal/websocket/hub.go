package websocket

import (
	"log/slog"
	"sync"

	ws "github.com/coder/websocket"
)

// Hub tracks open subscription connections so they can be closed together
// on shutdown.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client. Calling it twice is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// CloseAll tells every connected client the server is going away. It does
// not wait for the close handshakes to finish.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) > 0 {
		h.logger.Info("closing subscription connections", "count", len(h.clients))
	}
	for c := range h.clients {
		go c.close(ws.StatusGoingAway, "server shutting down")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
