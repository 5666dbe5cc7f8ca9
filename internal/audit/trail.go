package audit

import (
	"context"
	"sync"

	"github.com/carebridge/platform/internal/shared/events"
	"github.com/carebridge/platform/internal/shared/metrics"
	"github.com/carebridge/platform/internal/shared/types"
)

// DefaultCapacity bounds how many entries the trail retains
const DefaultCapacity = 200

// Trail is a bounded in-memory activity log fed from the event bus. Older
// entries fall off once capacity is reached.
type Trail struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// NewTrail creates a trail with the given capacity; zero or negative means
// the default
func NewTrail(capacity int) *Trail {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Trail{capacity: capacity}
}

// Subscribe attaches the trail to the bus so every published event becomes
// an entry
func (t *Trail) Subscribe(bus events.Bus) {
	bus.Subscribe(func(ctx context.Context, e events.Event) error {
		t.Record(fromEvent(e))
		return nil
	})
}

// Record appends an entry, evicting the oldest when full
func (t *Trail) Record(entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, entry)
	if len(t.entries) > t.capacity {
		t.entries = t.entries[len(t.entries)-t.capacity:]
	}
	metrics.RecordActivityEntry()
}

// List returns entries newest first, optionally filtered by patient and
// capped at limit. A zero patient id matches everything; limit <= 0 means
// no cap.
func (t *Trail) List(patientID types.ID, limit int) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, 0, len(t.entries))
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if !patientID.IsZero() && e.PatientID != patientID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Len returns the number of retained entries
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
