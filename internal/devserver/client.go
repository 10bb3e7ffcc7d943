package devserver

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents one websocket connection.
type Client struct {
	ID            string
	UserID        int64
	Conn          *websocket.Conn
	Send          chan []byte
	conversations map[int64]bool
	mu            sync.RWMutex // protects conversations map and conn writes
}

func NewClient(conn *websocket.Conn, userID int64) *Client {
	return &Client{
		ID:            uuid.New().String(),
		UserID:        userID,
		Conn:          conn,
		Send:          make(chan []byte, 256),
		conversations: make(map[int64]bool),
	}
}

// SubscribeConversation is called by the hub only.
func (c *Client) SubscribeConversation(conversationID int64) {
	c.mu.Lock()
	c.conversations[conversationID] = true
	c.mu.Unlock()
}

// UnsubscribeConversation is called by the hub only.
func (c *Client) UnsubscribeConversation(conversationID int64) {
	c.mu.Lock()
	delete(c.conversations, conversationID)
	c.mu.Unlock()
}

// WriteLoop handles outbound frames from the Send channel.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.TextMessage, msg)
			c.mu.Unlock()
		case <-ticker.C:
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			c.mu.Unlock()
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	_ = c.Conn.Close()
	c.mu.Unlock()
}

// SendMessage sends a frame to the client's Send channel (non-blocking)
func (c *Client) SendMessage(msg []byte) {
	select {
	case c.Send <- msg:
	default:
		// Channel full, frame dropped
	}
}
