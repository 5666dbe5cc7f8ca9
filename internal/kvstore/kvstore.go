// Package kvstore provides the durable key-value storage the dashboard
// mirrors its in-memory state into. Three keys are in use: the caregiver
// profile, the patient collection and the selected patient id.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store
type Store interface {
	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the value under key, replacing any previous value
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key; missing keys are not an error
	Delete(ctx context.Context, key string) error

	// Close releases backend resources
	Close()
}

// Memory is an in-memory store for tests and ephemeral runs
type Memory struct {
	values map[string][]byte
}

// NewMemory creates an in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() {}

var _ Store = (*Memory)(nil)
