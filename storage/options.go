package storage

// Option configures a store backend.
type Option func(*Options)

// Options holds store connection configuration.
type Options struct {
	DSN  DSN
	Name string
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Name: DefaultName,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DefaultName is the namespace used when none is configured.
const DefaultName = "userlocale"

func WithDSN(dsn DSN) Option {
	return func(o *Options) {
		o.DSN = dsn
	}
}

// WithName sets the namespace of the store: the bucket, table prefix or key prefix
// depending on the backend.
func WithName(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Name = name
		}
	}
}
