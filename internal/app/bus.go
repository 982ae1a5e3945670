package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Compile-time check: EventBus implements domain.EventPublisher.
var _ domain.EventPublisher = (*EventBus)(nil)

// EventBus is a synchronous, in-process publish/subscribe dispatcher.
// Handlers run inline on the publishing goroutine, in registration order,
// with no queue, retry, or isolation between them.
type EventBus struct {
	mu       sync.RWMutex
	handlers []subscription
}

// subscription ignores events that are not assignable to its handler's type.
type subscription struct {
	deliver func(ctx context.Context, event domain.Event) error
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers handler for every published event assignable to E.
// E may be a concrete event type such as domain.BookingCreated, or a
// capability interface such as domain.BookingEvent or domain.Event, in which
// case the handler receives every event implementing it.
func Subscribe[E domain.Event](bus *EventBus, handler func(ctx context.Context, event E) error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers = append(bus.handlers, subscription{
		deliver: func(ctx context.Context, event domain.Event) error {
			typed, ok := event.(E)
			if !ok {
				return nil
			}
			return handler(ctx, typed)
		},
	})
}

// Publish delivers event to every matching handler. The first handler error
// stops delivery and is returned; handlers that must not abort the caller
// are expected to log and swallow their own errors.
func (b *EventBus) Publish(ctx context.Context, event domain.Event) error {
	// Snapshot so handlers may publish or subscribe without deadlocking.
	b.mu.RLock()
	handlers := make([]subscription, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.deliver(ctx, event); err != nil {
			return fmt.Errorf("handling %s: %w", event.EventName(), err)
		}
	}
	return nil
}

// PublishAll publishes events in order, stopping at the first error.
func (b *EventBus) PublishAll(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// HandlerCount returns the number of registered subscriptions.
func (b *EventBus) HandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
