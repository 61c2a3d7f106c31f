package userlocale

import (
	"context"

	"github.com/pitabwire/userlocale/config"
)

// WithConfig Option that helps to specify or override the configuration object of the resolver.
// Settings that need no I/O (logging, record keys, translations) are applied here;
// stores are opened by NewResolverFromConfig.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, r *Resolver) {
		r.configuration = cfg

		WithLogger()(ctx, r)

		if secretsCfg, ok := cfg.(config.ConfigurationSecrets); ok {
			WithUserIDKey(secretsCfg.GetUserIDSecretKey())(ctx, r)
		}

		if translationsCfg, ok := cfg.(config.ConfigurationTranslations); ok {
			languages := translationsCfg.GetTranslationsLanguages()
			if len(languages) > 0 {
				WithTranslation(translationsCfg.GetTranslationsPath(), languages...)(ctx, r)
			}
		}
	}
}
