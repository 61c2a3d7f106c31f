package userlocale

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitabwire/util"

	"github.com/pitabwire/userlocale/config"
	"github.com/pitabwire/userlocale/locale"
	"github.com/pitabwire/userlocale/preferences"
	"github.com/pitabwire/userlocale/storage"
	"github.com/pitabwire/userlocale/storage/jetstream"
	"github.com/pitabwire/userlocale/storage/postgres"
	"github.com/pitabwire/userlocale/storage/redis"
	"github.com/pitabwire/userlocale/storage/sqlite"
	"github.com/pitabwire/userlocale/storage/valkey"
)

// ErrUnsupportedStore is returned by OpenStore for a DSN no backend understands.
var ErrUnsupportedStore = errors.New("userlocale: unsupported store")

// OpenStore opens the key value backend dsn points at. name namespaces the
// keys: the table, bucket or key prefix depending on the backend.
func OpenStore(ctx context.Context, dsn storage.DSN, name string) (storage.RawStore, error) {
	opts := []storage.Option{storage.WithDSN(dsn), storage.WithName(name)}

	switch {
	case dsn.IsMem():
		return storage.NewInMemoryStore(), nil
	case dsn.IsSQLite():
		return sqlite.New(ctx, opts...)
	case dsn.IsRedis():
		return redis.New(ctx, opts...)
	case dsn.IsValkey():
		return valkey.New(ctx, opts...)
	case dsn.IsNats():
		return jetstream.New(ctx, opts...)
	case dsn.IsPostgres():
		return postgres.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, dsn.String())
	}
}

// OpenRepository builds the preference store described by cfg. Secrets are
// sealed with the configured keeper and may share the record backend.
func OpenRepository(ctx context.Context, cfg any) (preferences.Repository, error) {
	storeCfg, ok := cfg.(config.ConfigurationStore)
	if !ok {
		return nil, errors.New("userlocale: configuration does not describe a preference store")
	}

	records, err := OpenStore(ctx, storage.DSN(storeCfg.GetPreferencesStoreURI()), storeCfg.GetPreferencesStoreName())
	if err != nil {
		return nil, fmt.Errorf("could not open preferences store: %w", err)
	}

	secretsCfg, ok := cfg.(config.ConfigurationSecrets)
	if !ok {
		return preferences.NewRepository(records,
			preferences.NewPlainSecretStore(records),
			preferences.WithRecordKey(storeCfg.GetPreferencesRecordKey())), nil
	}

	var repoOpts []preferences.Option
	repoOpts = append(repoOpts, preferences.WithRecordKey(storeCfg.GetPreferencesRecordKey()))

	secretRaw := records
	if !secretsCfg.SharesPreferencesStore() || secretsCfg.GetSecretStoreName() != storeCfg.GetPreferencesStoreName() {
		secretRaw, err = OpenStore(ctx, storage.DSN(secretsCfg.GetSecretStoreURI()), secretsCfg.GetSecretStoreName())
		if err != nil {
			util.CloseAndLogOnError(ctx, records, "could not close preferences store")
			return nil, fmt.Errorf("could not open secret store: %w", err)
		}
		repoOpts = append(repoOpts, preferences.WithCloser(secretRaw))
	}

	if secretsCfg.IsSecretKeeperEphemeral() {
		util.Log(ctx).Warn("secrets are sealed with a key generated at startup, the user identifier will not survive a restart; set SECRET_KEEPER_URL")
	}

	keeper, err := preferences.OpenKeeper(ctx, secretsCfg.GetSecretKeeperURL())
	if err != nil {
		util.CloseAndLogOnError(ctx, records, "could not close preferences store")
		if secretRaw != records {
			util.CloseAndLogOnError(ctx, secretRaw, "could not close secret store")
		}
		return nil, err
	}

	return preferences.NewRepository(records, preferences.NewSealedSecretStore(secretRaw, keeper), repoOpts...), nil
}

// NewResolverFromConfig opens the stores and locale watcher cfg describes and
// builds a resolver on top of them. opts are applied after the configured ones.
func NewResolverFromConfig(ctx context.Context, cfg any, opts ...Option) (context.Context, *Resolver, error) {
	ctx = config.ToContext(ctx, cfg)

	repository, err := OpenRepository(ctx, cfg)
	if err != nil {
		return ctx, nil, err
	}

	source := locale.NewSystem()

	resolverOpts := []Option{
		WithConfig(cfg),
		WithSource(source),
		WithRepository(repository),
	}

	if watchCfg, ok := cfg.(config.ConfigurationLocaleWatch); ok && watchCfg.IsLocaleWatchEnabled() {
		paths := watchCfg.GetLocaleWatchPaths()
		if len(paths) == 0 {
			paths = source.WatchPaths()
		}
		resolverOpts = append(resolverOpts, WithWatcher(locale.NewFileWatcher(paths...)))
	}

	ctx, resolver := NewResolver(ctx, append(resolverOpts, opts...)...)
	return ctx, resolver, nil
}
