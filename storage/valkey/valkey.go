package valkey

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/pitabwire/userlocale/storage"
)

// Store is a Valkey-backed store implementation using the official Valkey client.
type Store struct {
	client valkey.Client
	prefix string
}

const connectionTimeout = 5 * time.Second

// New creates a new Valkey store. Both valkey:// and redis:// DSNs are accepted.
func New(ctx context.Context, opts ...storage.Option) (storage.RawStore, error) {
	storeOpts := storage.NewOptions(opts...)

	valkeyOpts, err := valkey.ParseURL(storeOpts.DSN.WithScheme("redis").String())
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, err
	}

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if pingErr := client.Do(pingCtx, client.B().Ping().Build()).Error(); pingErr != nil {
		client.Close()
		return nil, pingErr
	}

	return &Store{
		client: client,
		prefix: storeOpts.Name + ":",
	}, nil
}

// Get retrieves an item from the store.
func (vs *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := vs.client.B().Get().Key(vs.prefix + key).Build()
	resp := vs.client.Do(ctx, cmd)

	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	val, err := resp.AsBytes()
	if err != nil {
		return nil, false, err
	}

	return val, true, nil
}

// Set stores an item without expiry.
func (vs *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := vs.client.B().Set().Key(vs.prefix + key).Value(valkey.BinaryString(value)).Build()
	return vs.client.Do(ctx, cmd).Error()
}

// Delete removes an item from the store.
func (vs *Store) Delete(ctx context.Context, key string) error {
	cmd := vs.client.B().Del().Key(vs.prefix + key).Build()
	return vs.client.Do(ctx, cmd).Error()
}

// Exists checks if a key exists in the store.
func (vs *Store) Exists(ctx context.Context, key string) (bool, error) {
	cmd := vs.client.B().Exists().Key(vs.prefix + key).Build()
	count, err := vs.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close closes the Valkey connection.
func (vs *Store) Close() error {
	vs.client.Close()
	return nil
}
