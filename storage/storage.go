package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrStoreClosed is returned by stores that are used after Close.
var ErrStoreClosed = errors.New("storage: store is closed")

// RawStore is the low-level key-value interface that works with bytes.
// Entries never expire; preferences are kept until explicitly deleted.
type RawStore interface {
	// Get retrieves the value stored under key, reporting whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources used by the store.
	Close() error
}

// Typed wraps a RawStore and provides automatic JSON serialization of values.
type Typed[V any] struct {
	raw RawStore
}

// NewTyped creates a typed view over raw.
func NewTyped[V any](raw RawStore) *Typed[V] {
	return &Typed[V]{raw: raw}
}

func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	data, found, err := t.raw.Get(ctx, key)
	if err != nil || !found {
		return zero, found, err
	}

	var value V
	if unmarshalErr := json.Unmarshal(data, &value); unmarshalErr != nil {
		return zero, false, unmarshalErr
	}
	return value, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return t.raw.Set(ctx, key, data)
}

func (t *Typed[V]) Delete(ctx context.Context, key string) error {
	return t.raw.Delete(ctx, key)
}

func (t *Typed[V]) Exists(ctx context.Context, key string) (bool, error) {
	return t.raw.Exists(ctx, key)
}

// Raw exposes the underlying byte store.
func (t *Typed[V]) Raw() RawStore {
	return t.raw
}
