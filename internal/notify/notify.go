// Package notify delivers side-effect notifications about stored messages.
// Delivery failures are logged and counted; they never reach the caller
// whose write triggered them.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"messageboard/internal/metrics"
	"messageboard/internal/microservices/http-api/models"
)

const EventMessageCreated = "message.created"

// Event describes a stored message. It is also the JSON published on redis.
type Event struct {
	Type      string `json:"type"`
	Table     string `json:"table"`
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId,omitempty"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

func NewMessageCreated(table string, m *models.Message) Event {
	return Event{
		Type:      EventMessageCreated,
		Table:     table,
		MessageID: m.ID,
		RoomID:    m.RoomID,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// Notifier delivers one event over one channel.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Publisher hands events to a delivery strategy. Publish never returns an error.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Channel names a notifier. Deliveries are counted per channel and its
// errors carry the name, so a joined Multi error still says who failed.
type Channel struct {
	Name     string
	Notifier Notifier
}

func (c Channel) Notify(ctx context.Context, e Event) error {
	if err := c.Notifier.Notify(ctx, e); err != nil {
		metrics.Notifications.WithLabelValues(c.Name, "failed").Inc()
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	metrics.Notifications.WithLabelValues(c.Name, "sent").Inc()
	return nil
}

// LogNotifier only logs. Used when no channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, e Event) error {
	n.logger.Info("message notification",
		zap.String("type", e.Type),
		zap.String("table", e.Table),
		zap.String("message_id", e.MessageID),
	)
	return nil
}

// emailBody renders the admin email text for a created message.
func emailBody(e Event) string {
	return fmt.Sprintf("New message was created:\n\nID: %s\nContent: %s", e.MessageID, e.Content)
}
