// Package events pushes server-side state changes to connected browsers over
// websockets.
package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

type message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan message
}

// Hub fans broadcast events out to every connected client. Clients that
// cannot keep up are dropped rather than allowed to stall the rest.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	// snapshot is replayed to newly connected clients so they do not have
	// to wait for the next state change.
	snapshotMu sync.RWMutex
	snapshot   *message
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// HandleConnection upgrades the request and registers the client.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] Upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan message, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[events] Client %s connected (%d total)", c.id, count)

	h.snapshotMu.RLock()
	if h.snapshot != nil {
		c.send <- *h.snapshot
	}
	h.snapshotMu.RUnlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast sends an event to every connected client and remembers it as the
// snapshot for future connections.
func (h *Hub) Broadcast(event string, payload any) {
	msg := message{Event: event, Payload: payload}

	h.snapshotMu.Lock()
	h.snapshot = &msg
	h.snapshotMu.Unlock()

	h.mu.RLock()
	var stalled []*client
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		log.Printf("[events] Client %s too slow, dropping", c.id)
		h.remove(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.remove(c)
			return
		}
	}
}

// readLoop drains incoming frames so pings and close handshakes are
// processed. The protocol is one-way; client payloads are discarded.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
	log.Printf("[events] Client %s disconnected", c.id)
}
