package storage

import (
	"context"
	"sync"
	"sync/atomic"
)

// InMemoryStore is a thread-safe in-memory store implementation.
// It is the store used when no persistent backend is configured and in tests.
type InMemoryStore struct {
	items  sync.Map // map[string][]byte
	closed atomic.Bool
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() RawStore {
	return &InMemoryStore{}
}

// Get retrieves an item from the store.
func (m *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrStoreClosed
	}

	value, ok := m.items.Load(key)
	if !ok {
		return nil, false, nil
	}

	data, ok := value.([]byte)
	if !ok {
		m.items.Delete(key)
		return nil, false, nil
	}

	// Hand out a copy so callers cannot mutate stored state.
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Set stores an item.
func (m *InMemoryStore) Set(_ context.Context, key string, value []byte) error {
	if m.closed.Load() {
		return ErrStoreClosed
	}

	data := make([]byte, len(value))
	copy(data, value)
	m.items.Store(key, data)
	return nil
}

// Delete removes an item from the store.
func (m *InMemoryStore) Delete(_ context.Context, key string) error {
	if m.closed.Load() {
		return ErrStoreClosed
	}

	m.items.Delete(key)
	return nil
}

// Exists checks if a key exists in the store.
func (m *InMemoryStore) Exists(_ context.Context, key string) (bool, error) {
	if m.closed.Load() {
		return false, ErrStoreClosed
	}

	_, ok := m.items.Load(key)
	return ok, nil
}

// Close marks the store closed and drops its contents.
func (m *InMemoryStore) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.items.Range(func(key, _ any) bool {
		m.items.Delete(key)
		return true
	})
	return nil
}
