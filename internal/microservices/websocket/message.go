package websocket

import (
	"encoding/json"

	"messageboard/internal/notify"
)

// Message protocol definitions

type MessageType string

const (
	TypeCreated MessageType = "message.created" // a message was stored in the room
	TypeSystem  MessageType = "system"          // feed status, e.g. subscription confirmed
)

// Message is one frame pushed to a subscriber.
type Message struct {
	Type      MessageType `json:"type"`
	RoomID    string      `json:"roomId"`
	MessageID string      `json:"messageId,omitempty"`
	Sender    string      `json:"sender,omitempty"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// FromEvent converts a notification event into a feed frame. The table is
// left out: subscribers only ever see their own tenant.
func FromEvent(e notify.Event) *Message {
	return &Message{
		Type:      TypeCreated,
		RoomID:    e.RoomID,
		MessageID: e.MessageID,
		Sender:    e.Sender,
		Content:   e.Content,
		Timestamp: e.Timestamp,
	}
}

func NewSystemMessage(roomID, content string) *Message {
	return &Message{Type: TypeSystem, RoomID: roomID, Content: content}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
