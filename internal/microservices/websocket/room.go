package websocket

import (
	"sync"
)

// RoomKey identifies a room within one tenant table.
type RoomKey struct {
	Table  string
	RoomID string
}

// Room holds the subscribers of one message room.
type Room struct {
	Key     RoomKey
	Clients map[string]*Client // map[clientID] -> *Client
	mu      sync.RWMutex
}

func NewRoom(key RoomKey) *Room {
	return &Room{
		Key:     key,
		Clients: make(map[string]*Client),
	}
}

// AddUser reports false when the client is already subscribed.
func (r *Room) AddUser(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Clients[c.ID] != nil {
		return false
	}
	r.Clients[c.ID] = c
	return true
}

// RemoveUser returns the number of clients left.
func (r *Room) RemoveUser(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Clients, c.ID)
	return len(r.Clients)
}

// Broadcast queues message on every client. Clients whose buffer is full
// are returned so the caller can disconnect them.
func (r *Room) Broadcast(message []byte) (slow []*Client) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.Clients {
		if !c.enqueue(message) {
			slow = append(slow, c)
		}
	}
	return slow
}

func (r *Room) GetUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients)
}
