// Package websocket provides the event channel that tells every
// connected client about database writes.
// file: websocket/connection.go
package websocket

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"school-trips/logger"
)

// WSConn is an interface for the WebSocket connection.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)
	Close() error
	RemoteAddr() net.Addr
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
}

// Connection represents a single WebSocket connection for one client.
type Connection struct {
	conn     WSConn
	send     chan []byte
	socketID string
	hub      *Hub
}

// Configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
)

// Upgrader upgrades HTTP requests to WebSocket connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Clients connect from whatever host the school serves the app
		// on, so all origins are accepted.
		return true
	},
}

// Hub tracks every connected client and fans database-update events out
// to all of them.
type Hub struct {
	mu          sync.Mutex
	connections map[*Connection]bool
	broadcast   chan []byte
}

// NewHub creates an empty hub. Call Run in a goroutine to start
// delivering broadcasts.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan []byte, 64),
	}
}

// helloMessage tells a freshly connected client its socket id, which it
// echoes back on every write for de-duplication.
type helloMessage struct {
	Type     string `json:"type"`
	SocketID string `json:"socketId"`
}

// ServeWs upgrades the HTTP request to a WebSocket connection, assigns
// it a socket id and starts the read and write pumps.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error.Printf("[ServeWs] WebSocket upgrade error: %v", err)
		return
	}

	c := &Connection{
		conn:     wsConn,
		send:     make(chan []byte, 256),
		socketID: uuid.NewString(),
		hub:      h,
	}
	logger.Info.Printf("[ServeWs] Client connected: remoteAddr=%v, socketId=%s", r.RemoteAddr, c.socketID)

	h.register(c)

	// the hello must be the first frame the client sees
	hello, err := json.Marshal(helloMessage{Type: "hello", SocketID: c.socketID})
	if err == nil {
		c.send <- hello
	}

	go c.readPump()
	go c.writePump()
}

// readPump consumes inbound frames. Clients only talk to the REST
// surface, so anything other than a pong is logged and dropped.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Warn.Printf("[readPump] Read error from %v: %v", c.conn.RemoteAddr(), err)
			break
		}
		if messageType == websocket.TextMessage {
			logger.Debug.Printf("[readPump] Ignoring unexpected client frame: %s", message)
		}
	}
}

// writePump handles outbound messages to the client, including periodic pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn.Printf("[writePump] Error writing to %v: %v", c.conn.RemoteAddr(), err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn.Printf("[writePump] Ping error for %v: %v", c.conn.RemoteAddr(), err)
				return
			}
		}
	}
}

// register adds the connection and publishes the new connection count.
func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.connections[c] = true
	count := len(h.connections)
	h.mu.Unlock()
	go PublishClientConnections(count)
}

// unregister removes the connection and publishes the new count.
func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
	}
	count := len(h.connections)
	h.mu.Unlock()
	go PublishClientConnections(count)
}

// ConnectionCount reports how many clients are attached.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}
