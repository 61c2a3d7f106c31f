package preferences

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitabwire/userlocale/storage"
)

const (
	// DefaultRecordKey is the key the record is stored under.
	DefaultRecordKey = "preferences"
	// DefaultSecretKey is the key the user identifier is stored under.
	DefaultSecretKey = "preferences.id"

	instrumentationName = "github.com/pitabwire/userlocale/preferences"
)

// RecordStore is the port for the generic preferences record.
type RecordStore interface {
	// LoadRecord returns nil and no error when nothing was saved.
	LoadRecord(ctx context.Context) (*Record, error)
	SaveRecord(ctx context.Context, record Record) error
	DeleteRecord(ctx context.Context) error
}

// SecretStore is the port for secret values such as the user identifier.
type SecretStore interface {
	LoadSecret(ctx context.Context, key string) (string, bool, error)
	SaveSecret(ctx context.Context, key, value string) error
	DeleteSecret(ctx context.Context, key string) error
}

// Repository joins both ports behind one interface.
type Repository interface {
	RecordStore
	SecretStore
	Close() error
}

// Option configures a repository.
type Option func(*repository)

// WithRecordKey overrides DefaultRecordKey.
func WithRecordKey(key string) Option {
	return func(r *repository) {
		if key != "" {
			r.recordKey = key
		}
	}
}

// WithCloser hands the repository extra resources to release on Close,
// typically a raw store opened only for secrets.
func WithCloser(closers ...io.Closer) Option {
	return func(r *repository) {
		r.closers = append(r.closers, closers...)
	}
}

// WithTracerProvider traces repository calls through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *repository) {
		r.tracer = tp.Tracer(instrumentationName)
	}
}

// WithMeterProvider records operation counts through mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *repository) {
		r.meter = mp.Meter(instrumentationName)
	}
}

type repository struct {
	records   *storage.Typed[Record]
	recordKey string
	secrets   SecretStore
	closers   []io.Closer
	tracer    trace.Tracer
	meter     metric.Meter

	operations metric.Int64Counter
}

// NewRepository creates a repository that keeps the record in records and
// secrets in secrets. Close releases records, secrets (when it is an io.Closer)
// and anything passed through WithCloser.
func NewRepository(records storage.RawStore, secrets SecretStore, opts ...Option) Repository {
	r := &repository{
		records:   storage.NewTyped[Record](records),
		recordKey: DefaultRecordKey,
		secrets:   secrets,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
	}

	for _, opt := range opts {
		opt(r)
	}

	operations, err := r.meter.Int64Counter("preferences.operations",
		metric.WithDescription("Preference store calls by operation and outcome"),
		metric.WithUnit("{call}"))
	if err == nil {
		r.operations = operations
	}
	return r
}

func (r *repository) LoadRecord(ctx context.Context) (*Record, error) {
	ctx, span := r.startSpan(ctx, "LoadRecord", r.recordKey)
	defer span.End()

	record, found, err := r.records.Get(ctx, r.recordKey)
	r.finish(ctx, span, "LoadRecord", err)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

func (r *repository) SaveRecord(ctx context.Context, record Record) error {
	ctx, span := r.startSpan(ctx, "SaveRecord", r.recordKey)
	defer span.End()

	err := r.records.Set(ctx, r.recordKey, record)
	r.finish(ctx, span, "SaveRecord", err)
	return err
}

func (r *repository) DeleteRecord(ctx context.Context) error {
	ctx, span := r.startSpan(ctx, "DeleteRecord", r.recordKey)
	defer span.End()

	err := r.records.Delete(ctx, r.recordKey)
	r.finish(ctx, span, "DeleteRecord", err)
	return err
}

func (r *repository) LoadSecret(ctx context.Context, key string) (string, bool, error) {
	ctx, span := r.startSpan(ctx, "LoadSecret", key)
	defer span.End()

	value, found, err := r.secrets.LoadSecret(ctx, key)
	r.finish(ctx, span, "LoadSecret", err)
	return value, found, err
}

func (r *repository) SaveSecret(ctx context.Context, key, value string) error {
	ctx, span := r.startSpan(ctx, "SaveSecret", key)
	defer span.End()

	err := r.secrets.SaveSecret(ctx, key, value)
	r.finish(ctx, span, "SaveSecret", err)
	return err
}

func (r *repository) DeleteSecret(ctx context.Context, key string) error {
	ctx, span := r.startSpan(ctx, "DeleteSecret", key)
	defer span.End()

	err := r.secrets.DeleteSecret(ctx, key)
	r.finish(ctx, span, "DeleteSecret", err)
	return err
}

func (r *repository) Close() error {
	var errs []error

	if err := r.records.Raw().Close(); err != nil {
		errs = append(errs, err)
	}

	if closer, ok := r.secrets.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, closer := range r.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *repository) startSpan(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "preferences."+operation,
		trace.WithAttributes(attribute.String("preferences.key", key)))
}

func (r *repository) finish(ctx context.Context, span trace.Span, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if r.operations != nil {
		r.operations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome)))
	}
}
