// internal/devserver/hub.go
package devserver

import (
	"encoding/json"
	"sync"
	"time"

	rt "janmanch-client/internal/domain/realtime"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// wsClient is one connected socket, keyed to a user and a device session.
// sendMu and closed keep enqueue and close mutually exclusive: the hub may
// drop a slow consumer while the socket's own read handler is still
// pushing replies, and a send must never race the channel close.
type wsClient struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	sessionID string

	sendMu sync.Mutex
	closed bool
}

// Hub fans realtime events out to every socket a member has open.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool // keyed by user id
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*wsClient]bool),
		logger:  logger,
	}
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*wsClient]bool)
	}
	h.clients[client.userID][client] = true
	h.logger.Info("socket connected",
		zap.String("user_id", client.userID),
		zap.String("session_id", client.sessionID))
}

func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[client.userID]; ok {
		if clients[client] {
			delete(clients, client)
			client.close()
			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}
			h.logger.Info("socket disconnected", zap.String("user_id", client.userID))
		}
	}
}

// SendToUser pushes one event to every socket the user has open.
func (h *Hub) SendToUser(userID string, event rt.EventType, payload interface{}) {
	msg, err := rt.NewMessage(event, payload)
	if err != nil {
		h.logger.Warn("failed to build realtime message", zap.Error(err))
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		client.enqueue(data)
	}
}

// Connected reports how many sockets the user has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (c *wsClient) enqueue(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		// Slow consumer: drop the socket rather than block the hub.
		c.hub.logger.Warn("socket send buffer full, dropping client",
			zap.String("user_id", c.userID))
		go c.hub.unregister(c)
	}
}

// sendEvent pushes one event to this socket only.
func (c *wsClient) sendEvent(event rt.EventType, payload interface{}) {
	msg, err := rt.NewMessage(event, payload)
	if err != nil {
		c.hub.logger.Warn("failed to build realtime message", zap.Error(err))
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *wsClient) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *wsClient) readPump(onMessage func(*wsClient, rt.Message)) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg rt.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Warn("socket read error", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		onMessage(c, msg)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
