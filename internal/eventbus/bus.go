// Package eventbus delivers cache lifecycle notifications to in-process
// subscribers.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/dreamfactory/dspdocs/internal/logging"
	"github.com/google/uuid"
)

// Topics published by the swagger cache.
const (
	TopicCacheRebuilt = "cache.rebuilt"
	TopicCacheCleared = "cache.cleared"
)

// Event is one published notification.
type Event struct {
	ID        string                 `json:"id"`
	Topic     string                 `json:"topic"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Handler receives events for a subscribed topic.
type Handler func(ctx context.Context, e Event)

// Bus is a synchronous publish/subscribe hub. A panicking handler is logged
// and does not stop delivery to the remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	history  []Event
	limit    int
	recovery *logging.RecoveryHandler
}

// Option configures the bus.
type Option func(*Bus)

// WithHistory keeps the last n events for inspection.
func WithHistory(n int) Option {
	return func(b *Bus) {
		b.limit = n
	}
}

// WithLogger sets the logger used for recovered handler panics.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bus) {
		b.recovery = &logging.RecoveryHandler{Logger: l}
	}
}

// New creates a bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[string][]Handler),
		limit:    32,
		recovery: &logging.RecoveryHandler{Logger: logging.Discard()},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic. "*" receives every topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], h)
	b.mu.Unlock()
}

// Publish delivers an event to subscribers of its topic and of "*".
// Safe to call on a nil bus.
func (b *Bus) Publish(ctx context.Context, topic string, data map[string]interface{}) Event {
	e := Event{
		ID:        uuid.New().String(),
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		RequestID: logging.GetRequestID(ctx),
		Data:      data,
	}
	if b == nil {
		return e
	}

	b.mu.Lock()
	if b.limit > 0 {
		b.history = append(b.history, e)
		if len(b.history) > b.limit {
			b.history = b.history[len(b.history)-b.limit:]
		}
	}
	handlers := make([]Handler, 0, len(b.handlers[topic])+len(b.handlers["*"]))
	handlers = append(handlers, b.handlers[topic]...)
	handlers = append(handlers, b.handlers["*"]...)
	b.mu.Unlock()

	for _, h := range handlers {
		h := h
		b.recovery.Wrap(func() { h(ctx, e) })
	}
	return e
}

// History returns retained events, oldest first.
func (b *Bus) History() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}
