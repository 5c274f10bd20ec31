package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Individual subscriber connection

const ( // ping pong (2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time to write a message to the peer
	PongWait       = 60 * time.Second    // no pong within this window = dead connection
	PingPeriod     = (PongWait * 9) / 10 // ping before PongWait expires to allow for jitter
	MaxMessageSize = 512                 // subscribers only send control frames
	SendBuffer     = 64
)

type Client struct {
	ID          string
	Room        RoomKey
	Conn        *websocket.Conn
	SendChannel chan []byte // outbound frames
	Hub         *Hub

	closeOnce sync.Once
	mu        sync.Mutex // guards closed and sends on SendChannel
	closed    bool
}

func NewClient(id string, room RoomKey, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:          id,
		Room:        room,
		Conn:        conn,
		SendChannel: make(chan []byte, SendBuffer),
		Hub:         hub,
	}
}

// enqueue never blocks; it reports false when the buffer is full.
func (c *Client) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.SendChannel <- message:
		return true
	default:
		return false
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.SendChannel)
		c.mu.Unlock()
	})
}

// ReadPump discards inbound frames and keeps the read deadline fresh. It
// returns when the peer goes away and then unsubscribes the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump sends queued frames and pings until SendChannel is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.SendChannel:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
