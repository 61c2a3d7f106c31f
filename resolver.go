// Package userlocale keeps one user's identity and locale preferences: the
// user identifier in a secret store, and the detected and custom language and
// country in a plain preferences record.
package userlocale

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/userlocale/advertising"
	"github.com/pitabwire/userlocale/locale"
	"github.com/pitabwire/userlocale/localization"
	"github.com/pitabwire/userlocale/preferences"
	"github.com/pitabwire/userlocale/storage"
)

type contextKey string

func (c contextKey) String() string {
	return "userlocale/" + string(c)
}

const ctxKeyResolver = contextKey("resolverKey")

// Resolver owns the preferences record of one user.
// An instance is created once with NewResolver and released with Close.
type Resolver struct {
	// mu serialises every mutation together with its persistence side effects.
	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]

	source     locale.Source
	repository preferences.Repository
	watcher    locale.Watcher
	userIDKey  string
	now        func() time.Time

	authorizer  advertising.Authorizer
	identifiers advertising.IdentifierProvider

	localizationManager localization.Manager

	logger        *util.LogEntry
	configuration any

	listenMu     sync.Mutex
	stopListen   context.CancelFunc
	listenerDone chan struct{}
	closeOnce    sync.Once
	closeErr     error
}

type Option func(ctx context.Context, r *Resolver)

// NewResolver creates a resolver. Defaults are detected from the locale
// source, then the saved record and identifier are laid over them. Storage
// failures are logged and the resolver starts from the detected defaults.
func NewResolver(ctx context.Context, opts ...Option) (context.Context, *Resolver) {
	r := &Resolver{
		userIDKey: preferences.DefaultSecretKey,
		now:       time.Now,
		logger:    util.Log(ctx),
	}

	r.Init(ctx, opts...)

	if r.source == nil {
		r.source = locale.NewSystem()
	}

	if r.repository == nil {
		secrets := storage.NewInMemoryStore()
		r.repository = preferences.NewRepository(
			storage.NewInMemoryStore(),
			preferences.NewPlainSecretStore(secrets),
			preferences.WithCloser(secrets),
		)
	}

	ctx = util.ContextWithLogger(ctx, r.logger)
	r.load(ctx)

	ctx = ToContext(ctx, r)
	return ctx, r
}

// Init applies options to the resolver.
func (r *Resolver) Init(ctx context.Context, opts ...Option) {
	for _, opt := range opts {
		opt(ctx, r)
	}
}

// ToContext pushes a resolver into the supplied context for easier propagation.
func ToContext(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, ctxKeyResolver, r)
}

// FromContext obtains the resolver propagated through the context.
func FromContext(ctx context.Context) *Resolver {
	r, ok := ctx.Value(ctxKeyResolver).(*Resolver)
	if !ok {
		return nil
	}
	return r
}

// Log returns the resolver logger bound to ctx.
func (r *Resolver) Log(ctx context.Context) *util.LogEntry {
	return r.logger.WithContext(ctx)
}

// Config returns the configuration object supplied through WithConfig.
func (r *Resolver) Config() any {
	return r.configuration
}

// Localization returns the translation manager, or nil when none was configured.
func (r *Resolver) Localization() localization.Manager {
	return r.localizationManager
}

func (r *Resolver) load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Language:    locale.DetectLanguage(r.source),
		Country:     locale.DetectCountry(r.source),
		LastUpdated: r.stamp(),
	}

	record, err := r.repository.LoadRecord(ctx)
	if err != nil {
		r.Log(ctx).WithError(err).Warn("could not load saved preferences, using detected defaults")
	} else if record != nil {
		snap = snap.withRecord(*record)
	}

	userID, found, err := r.repository.LoadSecret(ctx, r.userIDKey)
	if err != nil {
		r.Log(ctx).WithError(err).Warn("could not load user identifier")
	} else if found {
		snap.UserID = userID
	}

	r.snapshot.Store(&snap)

	r.Log(ctx).
		WithField("language", snap.Language).
		WithField("country", snap.Country).
		WithField("restored", record != nil).
		Debug("preferences loaded")
}

// Snapshot returns the current preferences without locking.
func (r *Resolver) Snapshot() Snapshot {
	return *r.snapshot.Load()
}

// EffectiveLanguage returns the custom language when set, else the detected one.
func (r *Resolver) EffectiveLanguage() string {
	return r.Snapshot().EffectiveLanguage()
}

// EffectiveCountry returns the custom country when set, else the detected one.
func (r *Resolver) EffectiveCountry() string {
	return r.Snapshot().EffectiveCountry()
}

// LanguagePreferences lists the effective language followed by the detected
// one, without duplicates.
func (r *Resolver) LanguagePreferences() []string {
	snap := r.Snapshot()

	languages := []string{snap.EffectiveLanguage()}
	if !slices.Contains(languages, snap.Language) {
		languages = append(languages, snap.Language)
	}
	return languages
}

// UserID returns the stored identifier or ErrEmptyIdentifier.
func (r *Resolver) UserID() (string, error) {
	userID := r.Snapshot().UserID
	if userID == "" {
		return "", ErrEmptyIdentifier
	}
	return userID, nil
}

// Refresh detects language and country again, stamps and persists them.
// Custom values are left alone.
func (r *Resolver) Refresh(ctx context.Context) {
	r.mutate(ctx, "refresh", func(snap *Snapshot) {
		snap.Language = locale.DetectLanguage(r.source)
		snap.Country = locale.DetectCountry(r.source)
	})
}

// SetCustomLanguage overrides the detected language. An empty value removes the override.
func (r *Resolver) SetCustomLanguage(ctx context.Context, language string) {
	r.mutate(ctx, "set custom language", func(snap *Snapshot) {
		snap.CustomLanguage = language
	})
}

// SetCustomCountry overrides the detected country. An empty value removes the override.
func (r *Resolver) SetCustomCountry(ctx context.Context, country string) {
	r.mutate(ctx, "set custom country", func(snap *Snapshot) {
		snap.CustomCountry = country
	})
}

// SetUserID stores userID in the secret store, or deletes the stored
// identifier when userID is empty, then persists the record.
func (r *Resolver) SetUserID(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.Snapshot()
	snap.UserID = userID
	r.snapshot.Store(&snap)

	log := r.Log(ctx)

	var err error
	if userID == "" {
		err = r.repository.DeleteSecret(ctx, r.userIDKey)
	} else {
		err = r.repository.SaveSecret(ctx, r.userIDKey, userID)
	}
	if err != nil {
		log.WithError(err).Error("could not persist user identifier")
	}

	r.persist(ctx, snap)
}

// Clear drops the identifier and both custom values and deletes the stored
// identifier and record. Detected values stay until the next Refresh.
func (r *Resolver) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.Snapshot()
	snap.UserID = ""
	snap.CustomLanguage = ""
	snap.CustomCountry = ""
	snap.LastUpdated = r.stamp()
	r.snapshot.Store(&snap)

	log := r.Log(ctx)

	if err := r.repository.DeleteSecret(ctx, r.userIDKey); err != nil {
		log.WithError(err).Error("could not delete user identifier")
	}

	if err := r.repository.DeleteRecord(ctx); err != nil {
		log.WithError(err).Error("could not delete preferences")
	}

	log.Info("preferences cleared")
}

func (r *Resolver) mutate(ctx context.Context, operation string, change func(snap *Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.Snapshot()
	change(&snap)
	snap.LastUpdated = r.stamp()
	r.snapshot.Store(&snap)

	r.Log(ctx).
		WithField("operation", operation).
		WithField("language", snap.EffectiveLanguage()).
		WithField("country", snap.EffectiveCountry()).
		Debug("preferences updated")

	r.persist(ctx, snap)
}

// persist must be called with mu held.
func (r *Resolver) persist(ctx context.Context, snap Snapshot) {
	if err := r.repository.SaveRecord(ctx, snap.Record()); err != nil {
		r.Log(ctx).WithError(err).Error("could not persist preferences")
	}
}

func (r *Resolver) stamp() time.Time {
	return r.now().UTC()
}

// Translate renders messageID in the user's language preferences. An integer
// "Count" variable selects the plural form. Without a configured translation
// manager messageID is returned as is.
func (r *Resolver) Translate(ctx context.Context, messageID string, variables map[string]any) string {
	if r.localizationManager == nil {
		return messageID
	}
	return localization.Render(ctx, r.localizationManager, r, messageID, variables)
}
