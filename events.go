package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPingPeriod = 30 * time.Second
)

var eventUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventClient is a single WebSocket subscriber to the ledger event stream.
type eventClient struct {
	send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *eventClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.hub.unregister(c)
}

// trySend queues a message without blocking. Messages for a full or closed
// client are dropped.
func (c *eventClient) trySend(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// Hub maintains the set of connected event-stream clients and fans change
// events out to all of them. Slow clients are dropped rather than allowed to
// block the broadcast path.
type Hub struct {
	mu      sync.RWMutex
	clients map[*eventClient]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*eventClient]struct{})}
}

func (h *Hub) register(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Broadcast serializes the event once and queues it on every client.
func (h *Hub) Broadcast(ev ChangeEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := make([]*eventClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleEvents godoc
// @Summary Subscribe to the ledger change-event stream
// @Description Upgrades to WebSocket and pushes every applied change event as a JSON message
// @Tags events
// @Router /api/events [get]
func handleEvents(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := eventUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &eventClient{send: make(chan []byte, 64), hub: hub}
		hub.register(client)
		defer client.close()

		go eventWritePump(client, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}

func eventWritePump(c *eventClient, conn *websocket.Conn) {
	ticker := time.NewTicker(eventPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
