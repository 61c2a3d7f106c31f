package jetstream

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/pitabwire/userlocale/storage"
)

// Store is a JetStream-backed store implementation using the NATS KeyValue store.
// The store name is used as the bucket name.
type Store struct {
	conn   *nats.Conn
	client nats.KeyValue
}

// New connects to NATS and opens (or creates) the key value bucket.
func New(_ context.Context, opts ...storage.Option) (storage.RawStore, error) {
	storeOpts := storage.NewOptions(opts...)

	natsConn, err := nats.Connect(storeOpts.DSN.String())
	if err != nil {
		return nil, err
	}

	js, err := natsConn.JetStream()
	if err != nil {
		natsConn.Close()
		return nil, err
	}

	kvCfg := &nats.KeyValueConfig{
		Bucket:  storeOpts.Name,
		History: 1,
	}

	client, err := js.CreateKeyValue(kvCfg)
	if err != nil {
		var apiErr *nats.APIError
		if !errors.As(err, &apiErr) || apiErr.ErrorCode != nats.JSErrCodeStreamNameInUse {
			natsConn.Close()
			return nil, err
		}

		// If the bucket already exists, just get a handle to it.
		client, err = js.KeyValue(storeOpts.Name)
		if err != nil {
			natsConn.Close()
			return nil, err
		}
	}

	if _, err = client.Status(); err != nil {
		natsConn.Close()
		return nil, err
	}

	return &Store{
		conn:   natsConn,
		client: client,
	}, nil
}

// Get retrieves an item from the bucket.
func (js *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	resp, err := js.client.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return resp.Value(), true, nil
}

// Set puts an item into the bucket.
func (js *Store) Set(_ context.Context, key string, value []byte) error {
	_, err := js.client.Put(key, value)
	return err
}

// Delete purges the key and its history from the bucket.
func (js *Store) Delete(_ context.Context, key string) error {
	err := js.client.Purge(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return err
	}
	return nil
}

// Exists checks if a key exists in the bucket.
func (js *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := js.Get(ctx, key)
	return found, err
}

// Close closes the NATS connection.
func (js *Store) Close() error {
	js.conn.Close()
	return nil
}
