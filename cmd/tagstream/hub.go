package main

import (
	"context"
	"sync"

	"github.com/lyzr/tagservice/common/logger"
)

// AllTags subscribes a client to every tag's events
const AllTags = "*"

// Hub maintains active WebSocket connections and broadcasts tag events
type Hub struct {
	// Map: tag id (or AllTags) → clients
	connections map[string][]*Client
	mutex       sync.RWMutex

	// Channel for registering clients
	register chan *Client

	// Channel for unregistering clients
	unregister chan *Client

	// Channel for broadcasting messages
	broadcast chan *Message

	// Closed when Run returns
	done chan struct{}

	log *logger.Logger
}

// Message is one tag event to deliver. Admin clients receive Data, other
// clients receive Summary, which carries no field changes.
type Message struct {
	TagID   string
	Data    []byte
	Summary []byte
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[string][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		done:        make(chan struct{}),
		log:         log,
	}
}

// Run starts the hub's main loop until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Info("hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Publish queues a message for delivery. Messages published after the hub
// stopped are dropped.
func (h *Hub) Publish(msg *Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[client.topic] = append(h.connections[client.topic], client)
	h.log.Debug("client registered",
		"topic", client.topic,
		"total_for_topic", len(h.connections[client.topic]))
}

// unregisterClient removes a client from the hub. Unknown clients are ignored.
func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients := h.connections[client.topic]
	for i, c := range clients {
		if c != client {
			continue
		}

		h.connections[client.topic] = append(clients[:i:i], clients[i+1:]...)
		close(client.send)

		if len(h.connections[client.topic]) == 0 {
			delete(h.connections, client.topic)
		}

		h.log.Debug("client unregistered",
			"topic", client.topic,
			"remaining_for_topic", len(h.connections[client.topic]))
		return
	}
}

// deliver sends a message to clients of its tag and to AllTags clients.
// Clients whose buffer is full are dropped.
func (h *Hub) deliver(message *Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	targets := append([]*Client(nil), h.connections[message.TagID]...)
	if message.TagID != AllTags {
		targets = append(targets, h.connections[AllTags]...)
	}

	for _, client := range targets {
		data := message.Summary
		if client.admin || data == nil {
			data = message.Data
		}

		select {
		case client.send <- data:
		default:
			h.log.Warn("client send buffer full, dropping connection", "topic", client.topic)
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for topic, clients := range h.connections {
		for _, c := range clients {
			close(c.send)
		}
		delete(h.connections, topic)
	}
}

// GetConnectionCount returns the total number of active connections
func (h *Hub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.connections {
		count += len(clients)
	}
	return count
}

// GetTopicCount returns the number of distinct subscriptions
func (h *Hub) GetTopicCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}
