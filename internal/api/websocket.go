package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/randalmurphal/taskboard/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must stay below pongWait

	// Client messages are tiny control frames.
	maxClientMessage = 4 * 1024

	clientQueueSize = 256
)

// ClientMessage is a control frame sent by a board client.
type ClientMessage struct {
	Type      string `json:"type"` // subscribe, unsubscribe, ping
	ProjectID string `json:"project_id,omitempty"`
}

// WSHandler streams committed moves to board clients. Each connection sees
// only its caller's tenant, optionally narrowed to one project.
type WSHandler struct {
	upgrader  websocket.Upgrader
	publisher events.Publisher
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*boardClient
}

// boardClient is one connected board.
type boardClient struct {
	conn      *websocket.Conn
	tenantID  string
	feed      <-chan events.Event
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex // protects projectID
	projectID string
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(pub events.Publisher, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // identity comes from the gateway headers, not the origin
			},
		},
		publisher: pub,
		logger:    logger,
		clients:   make(map[*websocket.Conn]*boardClient),
	}
}

// ServeHTTP upgrades the request and starts streaming the caller's events.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &boardClient{
		conn:      conn,
		tenantID:  caller.TenantID,
		feed:      h.publisher.Subscribe(caller.TenantID),
		send:      make(chan []byte, clientQueueSize),
		done:      make(chan struct{}),
		projectID: r.URL.Query().Get("project_id"),
	}

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	h.logger.Debug("websocket connected", "tenant", c.tenantID, "project", c.projectID)

	go h.readPump(c)
	go h.writePump(c)
	go h.forwardEvents(c)
}

// readPump handles client control frames until the peer goes away.
func (h *WSHandler) readPump(c *boardClient) {
	defer h.disconnect(c)

	c.conn.SetReadLimit(maxClientMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		h.handleMessage(c, message)
	}
}

// writePump owns all writes to the socket: queued messages, keepalive
// pings and the final close frame.
func (h *WSHandler) writePump(c *boardClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one control frame.
func (h *WSHandler) handleMessage(c *boardClient, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reject(c, "invalid message format")
		return
	}

	switch msg.Type {
	case "subscribe":
		// Narrow the stream to one project; "" or "*" means all projects.
		projectID := msg.ProjectID
		if projectID == "*" {
			projectID = ""
		}
		c.mu.Lock()
		c.projectID = projectID
		c.mu.Unlock()
		h.enqueue(c, map[string]any{"type": "subscribed", "project_id": msg.ProjectID})
	case "unsubscribe":
		c.mu.Lock()
		c.projectID = ""
		c.mu.Unlock()
		h.enqueue(c, map[string]any{"type": "unsubscribed"})
	case "ping":
		h.enqueue(c, map[string]any{"type": "pong"})
	default:
		h.reject(c, "unknown message type: "+msg.Type)
	}
}

// forwardEvents relays the tenant's moves that pass the client's project
// filter.
func (h *WSHandler) forwardEvents(c *boardClient) {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.feed:
			if !ok {
				h.disconnect(c)
				return
			}

			c.mu.Lock()
			projectID := c.projectID
			c.mu.Unlock()
			if projectID != "" && projectID != event.ProjectID {
				continue
			}

			h.enqueue(c, map[string]any{
				"type":  "event",
				"event": event,
			})
		}
	}
}

// disconnect drops the client's subscription and stops its pumps. Safe to
// call more than once.
func (h *WSHandler) disconnect(c *boardClient) {
	c.closeOnce.Do(func() {
		h.mu.Lock()
		delete(h.clients, c.conn)
		h.mu.Unlock()

		h.publisher.Unsubscribe(c.tenantID, c.feed)
		close(c.done)
	})
}

// enqueue marshals data onto the client's outbound queue, dropping it when
// the client is too slow to keep up.
func (h *WSHandler) enqueue(c *boardClient, data any) {
	msg, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("encode websocket message", "error", err)
		return
	}

	select {
	case c.send <- msg:
	default:
		h.logger.Warn("websocket client lagging, message dropped", "tenant", c.tenantID)
	}
}

// reject tells the client its last message was not understood.
func (h *WSHandler) reject(c *boardClient, message string) {
	h.enqueue(c, map[string]any{
		"type":  "error",
		"error": message,
	})
}

// ConnectionCount returns the number of connected clients.
func (h *WSHandler) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *WSHandler) Close() {
	h.mu.RLock()
	clients := make([]*boardClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.disconnect(c)
	}
}
