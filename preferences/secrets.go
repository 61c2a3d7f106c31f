package preferences

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"
	// Registers the base64key:// keeper scheme.
	_ "gocloud.dev/secrets/localsecrets"

	"github.com/pitabwire/userlocale/storage"
)

// OpenKeeper opens a gocloud.dev secrets keeper from a URL such as
// "base64key://<url-safe base64 key>". Other keeper schemes work when their
// driver package is linked into the binary.
func OpenKeeper(ctx context.Context, keeperURL string) (*secrets.Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keeperURL)
	if err != nil {
		return nil, fmt.Errorf("preferences: could not open secrets keeper: %w", err)
	}
	return keeper, nil
}

// SealedSecretStore encrypts secrets with a keeper before they reach the raw
// store, so the stored bytes never reveal the value.
type SealedSecretStore struct {
	raw    storage.RawStore
	keeper *secrets.Keeper
}

// NewSealedSecretStore creates a sealed store. Close releases the keeper only;
// raw stays owned by the caller.
func NewSealedSecretStore(raw storage.RawStore, keeper *secrets.Keeper) *SealedSecretStore {
	return &SealedSecretStore{raw: raw, keeper: keeper}
}

func (s *SealedSecretStore) LoadSecret(ctx context.Context, key string) (string, bool, error) {
	sealed, found, err := s.raw.Get(ctx, key)
	if err != nil || !found {
		return "", false, err
	}

	plain, err := s.keeper.Decrypt(ctx, sealed)
	if err != nil {
		return "", false, fmt.Errorf("preferences: could not unseal secret %q: %w", key, err)
	}
	return string(plain), true, nil
}

func (s *SealedSecretStore) SaveSecret(ctx context.Context, key, value string) error {
	sealed, err := s.keeper.Encrypt(ctx, []byte(value))
	if err != nil {
		return fmt.Errorf("preferences: could not seal secret %q: %w", key, err)
	}
	return s.raw.Set(ctx, key, sealed)
}

func (s *SealedSecretStore) DeleteSecret(ctx context.Context, key string) error {
	return s.raw.Delete(ctx, key)
}

func (s *SealedSecretStore) Close() error {
	return s.keeper.Close()
}

// PlainSecretStore keeps secrets as-is. Use it only when the raw store is
// itself a protected platform store.
type PlainSecretStore struct {
	raw storage.RawStore
}

// NewPlainSecretStore wraps raw without sealing.
func NewPlainSecretStore(raw storage.RawStore) *PlainSecretStore {
	return &PlainSecretStore{raw: raw}
}

func (s *PlainSecretStore) LoadSecret(ctx context.Context, key string) (string, bool, error) {
	value, found, err := s.raw.Get(ctx, key)
	if err != nil || !found {
		return "", false, err
	}
	return string(value), true, nil
}

func (s *PlainSecretStore) SaveSecret(ctx context.Context, key, value string) error {
	return s.raw.Set(ctx, key, []byte(value))
}

func (s *PlainSecretStore) DeleteSecret(ctx context.Context, key string) error {
	return s.raw.Delete(ctx, key)
}
