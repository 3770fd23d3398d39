package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client is one WebSocket connection from an operator frontend.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered outbound queue; the write pump drains it.
	send chan WsEvent
}

// Hub fans session events out to every connected frontend.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan WsEvent
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan WsEvent, 256),
	}
}

// Run must be started on its own goroutine before the first Publish.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// Client buffer full, assume it is gone.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish implements RealtimePublisher.
func (h *Hub) Publish(event WsEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.broadcast <- event
}

// RealtimePublisher is what the lifecycle manager holds so it does not depend
// on the hub directly.
type RealtimePublisher interface {
	Publish(event WsEvent)
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan WsEvent, 256),
	}
}

// WritePump sends events from the send channel to the connection. Run as a
// goroutine from the /ws handler.
func (c *Client) WritePump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for event := range c.send {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Msg("ws: failed to marshal event")
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Error().Err(err).Msg("ws: failed to write message")
			return
		}
	}
}

// ReadPump consumes (and discards) client frames so pings and close frames
// are handled.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(15 * time.Minute))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(15 * time.Minute))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
