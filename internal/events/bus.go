// Package events provides the in-process event bus the factoring
// driver, scheduler, and streaming handlers communicate over.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a published occurrence: its type, the module that emitted
// it, and a typed payload.
type Event struct {
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block: the bus
// calls them synchronously and slow handlers stall publishers.
type Handler func(event *Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	eventType EventType
	id        int
}

// Bus is a type-keyed publish/subscribe hub. Safe for concurrent use.
type Bus struct {
	log zerolog.Logger

	mu       sync.RWMutex
	nextID   int
	handlers map[EventType]map[int]Handler
}

// NewBus creates an event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		log:      log.With().Str("component", "events").Logger(),
		handlers: make(map[EventType]map[int]Handler),
	}
}

// Subscribe registers a handler for one event type and returns the
// subscription used to remove it.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[int]Handler)
	}
	b.nextID++
	b.handlers[eventType][b.nextID] = handler
	return Subscription{eventType: eventType, id: b.nextID}
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[sub.eventType], sub.id)
}

// Publish delivers data to every handler subscribed to its type.
func (b *Bus) Publish(module string, data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", module).
		Int("handlers", len(handlers)).
		Msg("publishing event")

	for _, h := range handlers {
		h(event)
	}
}
