package devserver

import (
	"context"
	"sync"
)

// subscriptionRequest represents a channel subscription/unsubscription request
type subscriptionRequest struct {
	client         *Client
	conversationID int64
	subscribe      bool
}

// Hub manages websocket connections and their per-conversation
// subscriptions.
type Hub struct {
	mu sync.RWMutex

	clients  map[string]*Client
	channels map[int64]map[*Client]struct{}

	register     chan *Client
	unregister   chan *Client
	subscription chan subscriptionRequest
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		channels:     make(map[int64]map[*Client]struct{}),
		register:     make(chan *Client, 256),
		unregister:   make(chan *Client, 256),
		subscription: make(chan subscriptionRequest, 512),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.subscription:
			if req.subscribe {
				h.subscribeToConversation(req.client, req.conversationID)
			} else {
				h.unsubscribeFromConversation(req.client, req.conversationID)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(client *Client, conversationID int64) {
	h.subscription <- subscriptionRequest{client: client, conversationID: conversationID, subscribe: true}
}

func (h *Hub) Unsubscribe(client *Client, conversationID int64) {
	h.subscription <- subscriptionRequest{client: client, conversationID: conversationID, subscribe: false}
}

// Broadcast sends a frame to every client watching a conversation.
func (h *Hub) Broadcast(conversationID int64, payload []byte) {
	h.mu.RLock()
	clients := h.channels[conversationID]
	for c := range clients {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// BroadcastExcept skips one user, used for typing echoes.
func (h *Hub) BroadcastExcept(conversationID, userID int64, payload []byte) {
	h.mu.RLock()
	clients := h.channels[conversationID]
	for c := range clients {
		if c.UserID != userID {
			c.SendMessage(payload)
		}
	}
	h.mu.RUnlock()
}

// WatcherCount returns how many clients watch a conversation.
func (h *Hub) WatcherCount(conversationID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[conversationID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conversationID := range client.conversations {
		if subscribers, ok := h.channels[conversationID]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.channels, conversationID)
			}
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) subscribeToConversation(client *Client, conversationID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[conversationID]; !ok {
		h.channels[conversationID] = make(map[*Client]struct{})
	}
	h.channels[conversationID][client] = struct{}{}
	client.SubscribeConversation(conversationID)
}

func (h *Hub) unsubscribeFromConversation(client *Client, conversationID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.channels[conversationID]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.channels, conversationID)
		}
	}
	client.UnsubscribeConversation(conversationID)
}
