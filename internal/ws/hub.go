package ws

import (
	"context"
	"log/slog"
	"sync"
)

// Hub tracks connected hiders and funnels their messages onto one goroutine.
type Hub struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	Incoming   chan *ClientMessage
	mu         sync.RWMutex
	// done is closed when Run returns.
	done chan struct{}

	// OnConnect is called once a client is registered.
	OnConnect func(client *Client)
	// OnMessage is called for each incoming client message.
	OnMessage func(cm *ClientMessage)
	// OnDisconnect is called when a client disconnects, before its send
	// channel is closed.
	OnDisconnect func(client *Client)
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Incoming:   make(chan *ClientMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done. Clients still
// connected at that point are disconnected.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.disconnectAll()
			return nil

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			slog.Info("client connected", "client", client.ID)
			if h.OnConnect != nil {
				h.OnConnect(client)
			}

		case client := <-h.Unregister:
			h.disconnect(client)

		case cm := <-h.Incoming:
			if h.OnMessage != nil {
				h.OnMessage(cm)
			}
		}
	}
}

// receive hands a client message to the hub. It reports false once the hub
// has stopped.
func (h *Hub) receive(cm *ClientMessage) bool {
	select {
	case h.Incoming <- cm:
		return true
	case <-h.done:
		return false
	}
}

// leave asks the hub to drop the client. It returns at once if the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) disconnect(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	delete(h.clients, client.ID)
	h.mu.Unlock()
	if !ok {
		return
	}

	if h.OnDisconnect != nil {
		h.OnDisconnect(client)
	}
	client.close()
	slog.Info("client disconnected", "client", client.ID)
}

func (h *Hub) disconnectAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.disconnect(c)
	}
}

// Client returns a connected client by ID, or nil.
func (h *Hub) Client(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
