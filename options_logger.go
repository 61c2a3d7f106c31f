package userlocale

import (
	"context"
	"log/slog"

	"github.com/pitabwire/util"

	"github.com/pitabwire/userlocale/config"
)

// WithLogger Option that builds the resolver logger from the logging configuration, when present.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, r *Resolver) {
		if r.Config() != nil {
			cfg, ok := r.Config().(config.ConfigurationLogLevel)
			if ok {
				logLevel, err := util.ParseLevel(cfg.LoggingLevel())
				if err == nil {
					opts = append(opts, util.WithLogLevel(logLevel))
				}
				opts = append(opts,
					util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
					util.WithLogNoColor(!cfg.LoggingColored()))
				if cfg.LoggingShowStackTrace() {
					opts = append(opts, util.WithLogStackTrace())
				}
			}
		}

		r.logger = util.NewLogger(ctx, opts...).WithField("component", "userlocale")
	}
}

func (r *Resolver) SLog(ctx context.Context) *slog.Logger {
	return r.Log(ctx).SLog()
}
