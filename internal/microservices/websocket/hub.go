package websocket

// Hub tracks the rooms with live subscribers and fans stored messages out
// to them. It is a notify.Notifier, so it sits next to the email and redis
// channels.

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"messageboard/internal/notify"
)

type Hub struct {
	mu     sync.RWMutex
	rooms  map[RoomKey]*Room
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[RoomKey]*Room),
		logger: logger,
	}
}

// Register subscribes a client. The room is joined under the hub lock so a
// concurrent Unregister cannot drop it in between.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.Room]
	if !ok {
		room = NewRoom(c.Room)
		h.rooms[c.Room] = room
	}
	added := room.AddUser(c)
	h.mu.Unlock()

	if added {
		h.logger.Info("feed subscriber added",
			zap.String("table", c.Room.Table),
			zap.String("room_id", c.Room.RoomID),
			zap.String("client_id", c.ID),
		)
	}
}

// Unregister removes a client and drops its room once empty.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.Room]; ok {
		if room.RemoveUser(c) == 0 {
			delete(h.rooms, c.Room)
		}
	}
	h.mu.Unlock()

	c.Close()
	h.logger.Info("feed subscriber removed", zap.String("client_id", c.ID))
}

// Notify pushes a created message to its room. Messages without a room
// have no feed.
func (h *Hub) Notify(_ context.Context, e notify.Event) error {
	if e.RoomID == "" {
		return nil
	}

	h.mu.RLock()
	room := h.rooms[RoomKey{Table: e.Table, RoomID: e.RoomID}]
	h.mu.RUnlock()
	if room == nil {
		return nil
	}

	frame, err := FromEvent(e).ToJSON()
	if err != nil {
		return fmt.Errorf("encode feed frame: %w", err)
	}
	for _, c := range room.Broadcast(frame) {
		h.logger.Warn("feed subscriber too slow, disconnecting", zap.String("client_id", c.ID))
		h.Unregister(c)
	}
	return nil
}

// RoomCount returns the number of rooms with at least one subscriber.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[RoomKey]*Room)
	h.mu.Unlock()

	for _, room := range rooms {
		room.mu.RLock()
		for _, c := range room.Clients {
			c.Close()
		}
		room.mu.RUnlock()
	}
}
