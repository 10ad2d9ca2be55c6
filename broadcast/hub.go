// Package broadcast fans engine events out to WebSocket clients. The
// engine publishes through the game.Broadcaster interface and never sees a
// connection.
package broadcast

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"tagserver/models"
)

// Hub tracks connected clients per session and delivers published events
// to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]bool
	logger   *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Client]bool),
		logger:   logger,
	}
}

// Publish implements game.Broadcaster. Slow clients are skipped rather
// than blocking the caller; their write pump will fall behind and the
// connection gets closed by the ping deadline.
func (h *Hub) Publish(sessionID string, ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode event", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.sessions[sessionID] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("dropping event for slow client",
				zap.String("session", sessionID), zap.String("player", client.playerID))
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.sessions[c.sessionID]
	if !ok {
		clients = make(map[*Client]bool)
		h.sessions[c.sessionID] = clients
	}
	clients[c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.sessions[c.sessionID]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.sessions, c.sessionID)
	}
}
