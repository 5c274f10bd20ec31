package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"messageboard/internal/metrics"
)

// Queue delivers events on a background worker so the write path never
// waits on a notification channel. A full or closed queue drops the event.
type Queue struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.RWMutex // guards closed and sends on events
	closed bool
	events chan Event
	done   chan struct{}
}

func NewQueue(notifier Notifier, size int, timeout time.Duration, logger *zap.Logger) *Queue {
	return &Queue{
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
		events:   make(chan Event, size),
		done:     make(chan struct{}),
	}
}

// Start launches the worker. Call once.
func (q *Queue) Start() {
	go func() {
		defer close(q.done)
		for e := range q.events {
			deliver(q.notifier, e, q.timeout, q.logger)
		}
	}()
}

func (q *Queue) Publish(_ context.Context, e Event) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.NotificationsDropped.Inc()
		q.logger.Warn("notification dropped, queue closed", zap.String("message_id", e.MessageID))
		return
	}

	select {
	case q.events <- e:
	default:
		metrics.NotificationsDropped.Inc()
		q.logger.Warn("notification dropped, queue full",
			zap.String("message_id", e.MessageID),
			zap.Int("capacity", cap(q.events)),
		)
	}
}

// Close stops accepting events and waits for queued ones to be delivered
// or for ctx to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline delivers on the caller's goroutine, bounded by timeout. Used on
// Lambda, where background work is frozen once the response is returned.
type Inline struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
}

func NewInline(notifier Notifier, timeout time.Duration, logger *zap.Logger) *Inline {
	return &Inline{notifier: notifier, timeout: timeout, logger: logger}
}

func (p *Inline) Publish(ctx context.Context, e Event) {
	deliverWith(context.WithoutCancel(ctx), p.notifier, e, p.timeout, p.logger)
}

func deliver(n Notifier, e Event, timeout time.Duration, logger *zap.Logger) {
	deliverWith(context.Background(), n, e, timeout, logger)
}

func deliverWith(parent context.Context, n Notifier, e Event, timeout time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := n.Notify(ctx, e); err != nil {
		logger.Error("notification failed",
			zap.String("message_id", e.MessageID),
			zap.String("table", e.Table),
			zap.Error(err),
		)
	}
}
