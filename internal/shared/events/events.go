// Package events carries dashboard activity between the state store and
// interested subscribers (the activity trail, the suggestion service).
package events

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/platform/internal/shared/types"
	"github.com/google/uuid"
)

// Event represents a dashboard domain event
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	PatientID types.ID       `json:"patient_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates a new event with auto-generated ID and timestamp
func NewEvent(eventType string, patientID types.ID, data map[string]any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "carebridge",
		Timestamp: time.Now().UTC(),
		PatientID: patientID,
		Data:      data,
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event publishing and subscription
type Bus interface {
	// Publish publishes an event to the bus
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for all published events
	Subscribe(handler Handler)

	// Close closes the bus
	Close()

	// Health checks the bus backend
	Health() error
}

// MemoryBus dispatches events synchronously in process. It is the default
// bus and the local-dispatch core the durable bus builds on.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewMemoryBus creates an in-process event bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish dispatches the event to all subscribed handlers. Handler errors do
// not stop dispatch; the last error is returned.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	var lastErr error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Subscribe registers a handler for all events
func (b *MemoryBus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Close is a no-op for the in-process bus
func (b *MemoryBus) Close() {}

// Health always reports healthy for the in-process bus
func (b *MemoryBus) Health() error { return nil }

var _ Bus = (*MemoryBus)(nil)
