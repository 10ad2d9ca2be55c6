package broadcast

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tagserver/game/registry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one player's WebSocket subscription to a session's events.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	playerID  string
}

// ServeWS upgrades the request and attaches the player to the session's
// event stream. When the socket drops, the player is marked offline
// through the engine's leave path, which also runs host failover.
func ServeWS(hub *Hub, reg *registry.Registry, w http.ResponseWriter, r *http.Request,
	sessionID, playerID string, logger *zap.Logger) {

	if _, err := reg.Get(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 32),
		sessionID: sessionID,
		playerID:  playerID,
	}
	hub.register(client)
	logger.Info("client subscribed",
		zap.String("session", sessionID), zap.String("player", playerID))

	go client.writePump(logger)
	go client.readPump(reg, logger)
}

// readPump discards inbound frames (gameplay goes over HTTP) but keeps
// the read side alive for pong handling and disconnect detection.
func (c *Client) readPump(reg *registry.Registry, logger *zap.Logger) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.markOffline(reg, logger)
	}()
	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket closed", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// markOffline routes the disconnect through the session's leave handling.
// A session that already ended makes this a no-op.
func (c *Client) markOffline(reg *registry.Registry, logger *zap.Logger) {
	sess, err := reg.Get(c.sessionID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.Leave(ctx, c.playerID); err != nil {
		logger.Debug("disconnect leave failed",
			zap.String("session", c.sessionID), zap.String("player", c.playerID), zap.Error(err))
	}
}
