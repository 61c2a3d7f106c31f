package userlocale

import (
	"context"
	"time"

	"github.com/pitabwire/userlocale/advertising"
	"github.com/pitabwire/userlocale/locale"
	"github.com/pitabwire/userlocale/localization"
	"github.com/pitabwire/userlocale/preferences"
)

// WithSource sets where language and country are detected from.
// The default reads the host environment and locale files.
func WithSource(source locale.Source) Option {
	return func(_ context.Context, r *Resolver) {
		r.source = source
	}
}

// WithRepository sets the preference store. The resolver owns it and closes it on Close.
func WithRepository(repository preferences.Repository) Option {
	return func(_ context.Context, r *Resolver) {
		r.repository = repository
	}
}

// WithWatcher sets the source of locale change events used by Start.
func WithWatcher(watcher locale.Watcher) Option {
	return func(_ context.Context, r *Resolver) {
		r.watcher = watcher
	}
}

// WithUserIDKey overrides the secret key the user identifier is stored under.
func WithUserIDKey(key string) Option {
	return func(_ context.Context, r *Resolver) {
		if key != "" {
			r.userIDKey = key
		}
	}
}

// WithClock replaces time.Now for stamping updates.
func WithClock(now func() time.Time) Option {
	return func(_ context.Context, r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithAdvertising sets the tracking authorization and identifier provider.
func WithAdvertising(authorizer advertising.Authorizer, identifiers advertising.IdentifierProvider) Option {
	return func(_ context.Context, r *Resolver) {
		r.authorizer = authorizer
		r.identifiers = identifiers
	}
}

// WithTranslation loads message files for languages from translationsFolder.
// An empty folder uses the built in messages.
func WithTranslation(translationsFolder string, languages ...string) Option {
	return func(ctx context.Context, r *Resolver) {
		manager, err := localization.NewManager(translationsFolder, languages...)
		if err != nil {
			r.Log(ctx).WithError(err).Warn("could not load translations")
			return
		}
		r.localizationManager = manager
	}
}

// WithLocalization sets an already built translation manager.
func WithLocalization(manager localization.Manager) Option {
	return func(_ context.Context, r *Resolver) {
		r.localizationManager = manager
	}
}
