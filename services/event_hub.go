package services

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Event is one admin feed message: a new contact message, a newsletter
// subscription or a security rejection, pushed as JSON.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

const (
	EventContactMessage       = "contact_message"
	EventNewsletterSubscribed = "newsletter_subscribed"
	EventSecurityRejection    = "security_rejection"
	eventPong                 = "pong"
)

// clientQueueSize bounds the per-connection backlog. A client that falls
// this far behind gets disconnected rather than stalling the hub.
const clientQueueSize = 256

// EventHub fans events out to connected admin websocket clients. Each
// client is keyed by connection so one admin may hold several tabs.
// All frames for a connection, broadcasts and pong replies alike, go
// through the client's send channel; only the client's writer goroutine
// touches the connection for writing.
type EventHub struct {
	clients    map[*hubClient]struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	register   chan *hubClient
	unregister chan *hubClient
	broadcast  chan *Event
}

type hubClient struct {
	userID uint
	conn   *websocket.Conn
	send   chan *Event

	mu     sync.Mutex
	closed bool
}

// enqueue queues an event for the client's writer without blocking. It
// reports false when the queue is full or already shut down.
func (c *hubClient) enqueue(event *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once, ending the writer.
func (c *hubClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func NewEventHub(allowedOrigin string) *EventHub {
	hub := &EventHub{
		clients: make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || origin == allowedOrigin {
					return true
				}
				log.Printf("🚫 WebSocket connection rejected from origin: %s", origin)
				return false
			},
		},
		register:   make(chan *hubClient, 100),
		unregister: make(chan *hubClient, 100),
		broadcast:  make(chan *Event, 1000),
	}
	go hub.run()
	return hub
}

func (h *EventHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔌 Admin feed client connected: user %d (Total: %d)", client.userID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			total := len(h.clients)
			h.mu.Unlock()
			client.shutdown()
			log.Printf("🔌 Admin feed client disconnected (Total: %d)", total)

		case event := <-h.broadcast:
			h.send(event)
		}
	}
}

// send queues the event for every client. A client whose queue is full is
// dropped here so one stuck connection cannot hold up the others.
func (h *EventHub) send(event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.enqueue(event) {
			log.Printf("⚠️ Admin feed client for user %d too slow, dropping connection", client.userID)
			delete(h.clients, client)
			client.shutdown()
		}
	}
}

// writeClient is the single writer for one connection. It drains the send
// channel until the hub closes it, then closes the connection, which also
// unblocks the read loop in HandleConnection.
func (h *EventHub) writeClient(client *hubClient) {
	defer client.conn.Close()
	for event := range client.send {
		if err := client.conn.WriteJSON(event); err != nil {
			log.Printf("❌ Failed to push event to admin client: %v", err)
			return
		}
	}
}

// Publish queues an event for every connected admin. Non-blocking: when
// the queue is full the event is dropped, the feed is advisory.
func (h *EventHub) Publish(eventType string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("⚠️ Admin feed queue full, dropping event: %s", eventType)
	}
}

// HandleConnection upgrades an already-authenticated admin request and
// keeps the connection alive until the client goes away.
func (h *EventHub) HandleConnection(c *gin.Context, userID uint) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Failed to upgrade WebSocket: %v", err)
		return
	}

	client := &hubClient{
		userID: userID,
		conn:   conn,
		send:   make(chan *Event, clientQueueSize),
	}
	h.register <- client
	go h.writeClient(client)
	defer func() {
		h.unregister <- client
	}()

	for {
		var message map[string]interface{}
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ Admin feed error for user %d: %v", userID, err)
			}
			break
		}

		if msgType, ok := message["type"].(string); ok && msgType == "ping" {
			client.enqueue(&Event{Type: eventPong, Timestamp: time.Now()})
		}
	}
}

// ConnectionCount returns the number of connected admin clients.
func (h *EventHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
