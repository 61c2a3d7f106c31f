package storage_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcvalkey "github.com/testcontainers/testcontainers-go/modules/valkey"

	"github.com/pitabwire/userlocale/storage"
	"github.com/pitabwire/userlocale/storage/jetstream"
	"github.com/pitabwire/userlocale/storage/postgres"
	"github.com/pitabwire/userlocale/storage/redis"
	"github.com/pitabwire/userlocale/storage/sqlite"
	"github.com/pitabwire/userlocale/storage/valkey"
)

const (
	valkeyImage   = "docker.io/valkey/valkey:8"
	natsImage     = "docker.io/library/nats:2.11"
	postgresImage = "docker.io/library/postgres:17-alpine"
)

// opener opens a store of the given name on a backend shared for the whole suite.
type opener func(ctx context.Context, name string) (storage.RawStore, error)

// StoreBehaviourSuite runs every store test against each registered backend.
type StoreBehaviourSuite struct {
	suite.Suite
	openers map[string]opener
}

func (s *StoreBehaviourSuite) eachStore(fn func(name string, open opener)) {
	for name, open := range s.openers {
		s.Run(name, func() {
			fn(name, open)
		})
	}
}

func (s *StoreBehaviourSuite) mustOpen(open opener, name string) storage.RawStore {
	raw, err := open(s.T().Context(), name)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = raw.Close() })
	return raw
}

func (s *StoreBehaviourSuite) TestBasicOperations() {
	ctx := context.Background()

	s.eachStore(func(_ string, open opener) {
		raw := s.mustOpen(open, "basic")

		tests := []struct {
			testName string
			key      string
			value    []byte
		}{
			{"Simple value", "key1", []byte("value1")},
			{"Empty value", "key2", []byte{}},
			{"Large value", "key3", make([]byte, 4096)},
			{"Dotted key", "preferences.id", []byte("abc")},
		}

		for _, tt := range tests {
			s.Run(tt.testName, func() {
				s.Require().NoError(raw.Set(ctx, tt.key, tt.value))

				value, found, err := raw.Get(ctx, tt.key)
				s.Require().NoError(err)
				s.True(found)
				// Some clients hand back nil for an empty payload.
				s.True(bytes.Equal(tt.value, value))

				exists, err := raw.Exists(ctx, tt.key)
				s.Require().NoError(err)
				s.True(exists)

				s.Require().NoError(raw.Delete(ctx, tt.key))

				_, found, err = raw.Get(ctx, tt.key)
				s.Require().NoError(err)
				s.False(found)

				exists, err = raw.Exists(ctx, tt.key)
				s.Require().NoError(err)
				s.False(exists)
			})
		}
	})
}

func (s *StoreBehaviourSuite) TestOverwriteAndMissing() {
	ctx := context.Background()

	s.eachStore(func(_ string, open opener) {
		raw := s.mustOpen(open, "overwrite")

		value, found, err := raw.Get(ctx, "never-set")
		s.Require().NoError(err)
		s.False(found)
		s.Nil(value)

		s.Require().NoError(raw.Delete(ctx, "never-set"))

		s.Require().NoError(raw.Set(ctx, "k", []byte("first")))
		s.Require().NoError(raw.Set(ctx, "k", []byte("second")))

		value, found, err = raw.Get(ctx, "k")
		s.Require().NoError(err)
		s.True(found)
		s.Equal([]byte("second"), value)
	})
}

func (s *StoreBehaviourSuite) TestNamespacesAreIsolated() {
	ctx := context.Background()

	s.eachStore(func(_ string, open opener) {
		first := s.mustOpen(open, "first")
		second := s.mustOpen(open, "second")

		s.Require().NoError(first.Set(ctx, "shared", []byte("one")))

		_, found, err := second.Get(ctx, "shared")
		s.Require().NoError(err)
		s.False(found)
	})
}

func (s *StoreBehaviourSuite) TestConcurrentAccess() {
	ctx := context.Background()

	s.eachStore(func(_ string, open opener) {
		raw := s.mustOpen(open, "concurrent")

		const goroutines = 20
		const iterations = 5

		var wg sync.WaitGroup
		wg.Add(goroutines)

		for i := range goroutines {
			go func(id int) {
				defer wg.Done()
				for j := range iterations {
					key := fmt.Sprintf("key-%d-%d", id, j)
					value := []byte(fmt.Sprintf("value-%d-%d", id, j))
					s.NoError(raw.Set(ctx, key, value))

					got, found, err := raw.Get(ctx, key)
					s.NoError(err)
					s.True(found)
					s.Equal(value, got)
				}
			}(i)
		}

		wg.Wait()
	})
}

func (s *StoreBehaviourSuite) TestTypedRoundTrip() {
	ctx := context.Background()

	type record struct {
		Language string `json:"language"`
		Country  string `json:"country"`
	}

	s.eachStore(func(_ string, open opener) {
		typed := storage.NewTyped[record](s.mustOpen(open, "typed"))

		s.Require().NoError(typed.Set(ctx, "rec", record{Language: "fr", Country: "ca"}))

		got, found, err := typed.Get(ctx, "rec")
		s.Require().NoError(err)
		s.True(found)
		s.Equal(record{Language: "fr", Country: "ca"}, got)

		s.Require().NoError(typed.Raw().Set(ctx, "broken", []byte("{not json")))
		_, found, err = typed.Get(ctx, "broken")
		s.Error(err)
		s.False(found)
	})
}

// LocalStoreSuite covers the backends that need no external service.
type LocalStoreSuite struct {
	StoreBehaviourSuite
}

func (s *LocalStoreSuite) SetupSuite() {
	dbPath := filepath.Join(s.T().TempDir(), "preferences.db")

	s.openers = map[string]opener{
		"InMemory": func(_ context.Context, _ string) (storage.RawStore, error) {
			return storage.NewInMemoryStore(), nil
		},
		"SQLite": func(ctx context.Context, name string) (storage.RawStore, error) {
			return sqlite.New(ctx, storage.WithDSN(storage.DSN("sqlite://"+dbPath)), storage.WithName(name))
		},
	}
}

func TestLocalStoreSuite(t *testing.T) {
	suite.Run(t, new(LocalStoreSuite))
}

// ContainerStoreSuite covers the networked backends through testcontainers.
type ContainerStoreSuite struct {
	StoreBehaviourSuite
	containers []testcontainers.Container
}

func (s *ContainerStoreSuite) SetupSuite() {
	t := s.T()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()

	valkeyContainer, err := tcvalkey.Run(ctx, valkeyImage)
	s.Require().NoError(err, "could not start valkey")
	s.containers = append(s.containers, valkeyContainer)

	valkeyDSN, err := valkeyContainer.ConnectionString(ctx)
	s.Require().NoError(err)

	natsContainer, err := tcnats.Run(ctx, natsImage)
	s.Require().NoError(err, "could not start nats")
	s.containers = append(s.containers, natsContainer)

	natsDSN, err := natsContainer.ConnectionString(ctx)
	s.Require().NoError(err)

	pgContainer, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("userlocale"),
		tcpostgres.WithUsername("userlocale"),
		tcpostgres.WithPassword("s3cr3t"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err, "could not start postgres")
	s.containers = append(s.containers, pgContainer)

	pgDSN, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.openers = map[string]opener{
		"Redis": func(ctx context.Context, name string) (storage.RawStore, error) {
			return redis.New(ctx, storage.WithDSN(storage.DSN(valkeyDSN)), storage.WithName(name))
		},
		"Valkey": func(ctx context.Context, name string) (storage.RawStore, error) {
			return valkey.New(ctx, storage.WithDSN(storage.DSN(valkeyDSN)), storage.WithName(name))
		},
		"JetStream": func(ctx context.Context, name string) (storage.RawStore, error) {
			return jetstream.New(ctx, storage.WithDSN(storage.DSN(natsDSN)), storage.WithName(name))
		},
		"Postgres": func(ctx context.Context, name string) (storage.RawStore, error) {
			return postgres.New(ctx, storage.WithDSN(storage.DSN(pgDSN)), storage.WithName(name))
		},
	}
}

func (s *ContainerStoreSuite) TearDownSuite() {
	for _, c := range s.containers {
		_ = testcontainers.TerminateContainer(c)
	}
}

func TestContainerStoreSuite(t *testing.T) {
	suite.Run(t, new(ContainerStoreSuite))
}
