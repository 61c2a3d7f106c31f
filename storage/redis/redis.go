package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitabwire/userlocale/storage"
)

// Store is a Redis-backed store implementation.
type Store struct {
	client *redis.Client
	prefix string
}

const connectionTimeout = 5 * time.Second

// New creates a new Redis store from a redis:// DSN.
func New(ctx context.Context, opts ...storage.Option) (storage.RawStore, error) {
	storeOpts := storage.NewOptions(opts...)

	redisOpts, err := redis.ParseURL(storeOpts.DSN.WithScheme("redis").String())
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOpts)

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		_ = client.Close()
		return nil, pingErr
	}

	return &Store{
		client: client,
		prefix: storeOpts.Name + ":",
	}, nil
}

// Get retrieves an item from the store.
func (rs *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := rs.client.Get(ctx, rs.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set stores an item without expiry.
func (rs *Store) Set(ctx context.Context, key string, value []byte) error {
	return rs.client.Set(ctx, rs.prefix+key, value, 0).Err()
}

// Delete removes an item from the store.
func (rs *Store) Delete(ctx context.Context, key string) error {
	return rs.client.Del(ctx, rs.prefix+key).Err()
}

// Exists checks if a key exists in the store.
func (rs *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := rs.client.Exists(ctx, rs.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close closes the Redis connection.
func (rs *Store) Close() error {
	return rs.client.Close()
}
