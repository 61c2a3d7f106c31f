package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

func (c contextKey) String() string {
	return "userlocale/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	// DefaultSecretKeeperURL opens a local keeper with a random key. Secrets sealed
	// with it cannot be read back once the process exits.
	DefaultSecretKeeperURL = "base64key://"
)

// ToContext adds configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

// FromFile loads T from the environment and then overlays the YAML file at
// path. Keys present in the file win; everything else keeps its environment
// value or default.
func FromFile[T any](path string) (T, error) {
	cfg, err := env.ParseAs[T]()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: could not read %s: %w", path, err)
	}

	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: could not parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads configuration from path when it exists, and from the environment only otherwise.
func Load[T any](path string) (T, error) {
	if path == "" {
		return FromEnv[T]()
	}

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return FromEnv[T]()
	}
	return FromFile[T](path)
}

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogFormat     string `envDefault:"info"                      env:"LOG_FORMAT"      yaml:"log_format"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	// Store settings. An empty secret store URI shares the preferences store.
	PreferencesStoreURI  string `envDefault:""           env:"PREFERENCES_STORE_URI"  yaml:"preferences_store_uri"`
	PreferencesStoreName string `envDefault:"userlocale" env:"PREFERENCES_STORE_NAME" yaml:"preferences_store_name"`
	SecretStoreURI       string `envDefault:""           env:"SECRET_STORE_URI"       yaml:"secret_store_uri"`
	SecretStoreName      string `envDefault:""           env:"SECRET_STORE_NAME"      yaml:"secret_store_name"`
	SecretKeeperURL      string `envDefault:"base64key://" env:"SECRET_KEEPER_URL"    yaml:"secret_keeper_url"`

	PreferencesRecordKey string `envDefault:"preferences"    env:"PREFERENCES_RECORD_KEY" yaml:"preferences_record_key"`
	UserIDSecretKey      string `envDefault:"preferences.id" env:"USER_ID_SECRET_KEY"     yaml:"user_id_secret_key"`

	LocaleWatchEnabled bool     `envDefault:"true" env:"LOCALE_WATCH"       yaml:"locale_watch"`
	LocaleWatchPaths   []string `                  env:"LOCALE_WATCH_PATHS" yaml:"locale_watch_paths"`

	TranslationsPath      string   `envDefault:""   env:"TRANSLATIONS_PATH"      yaml:"translations_path"`
	TranslationsLanguages []string `envDefault:"en" env:"TRANSLATIONS_LANGUAGES" yaml:"translations_languages"`
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingFormat() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingFormat() string {
	return c.LogFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationStore interface {
	GetPreferencesStoreURI() string
	GetPreferencesStoreName() string
	GetPreferencesRecordKey() string
}

var _ ConfigurationStore = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetPreferencesStoreURI() string {
	return strings.TrimSpace(c.PreferencesStoreURI)
}

func (c *ConfigurationDefault) GetPreferencesStoreName() string {
	return c.PreferencesStoreName
}

func (c *ConfigurationDefault) GetPreferencesRecordKey() string {
	return c.PreferencesRecordKey
}

type ConfigurationSecrets interface {
	GetSecretStoreURI() string
	GetSecretStoreName() string
	GetSecretKeeperURL() string
	GetUserIDSecretKey() string
	SharesPreferencesStore() bool
	IsSecretKeeperEphemeral() bool
}

var _ ConfigurationSecrets = new(ConfigurationDefault)

// GetSecretStoreURI falls back to the preferences store.
func (c *ConfigurationDefault) GetSecretStoreURI() string {
	uri := strings.TrimSpace(c.SecretStoreURI)
	if uri == "" {
		return c.GetPreferencesStoreURI()
	}
	return uri
}

// GetSecretStoreName falls back to the preferences store name with a "_secrets" suffix.
func (c *ConfigurationDefault) GetSecretStoreName() string {
	if c.SecretStoreName != "" {
		return c.SecretStoreName
	}
	return c.GetPreferencesStoreName() + "_secrets"
}

func (c *ConfigurationDefault) GetSecretKeeperURL() string {
	if strings.TrimSpace(c.SecretKeeperURL) == "" {
		return DefaultSecretKeeperURL
	}
	return c.SecretKeeperURL
}

func (c *ConfigurationDefault) GetUserIDSecretKey() string {
	return c.UserIDSecretKey
}

// SharesPreferencesStore reports whether secrets live in the same backend as the record.
func (c *ConfigurationDefault) SharesPreferencesStore() bool {
	return c.GetSecretStoreURI() == c.GetPreferencesStoreURI()
}

// IsSecretKeeperEphemeral reports whether the keeper uses a key generated at startup.
func (c *ConfigurationDefault) IsSecretKeeperEphemeral() bool {
	return c.GetSecretKeeperURL() == DefaultSecretKeeperURL
}

type ConfigurationLocaleWatch interface {
	IsLocaleWatchEnabled() bool
	GetLocaleWatchPaths() []string
}

var _ ConfigurationLocaleWatch = new(ConfigurationDefault)

func (c *ConfigurationDefault) IsLocaleWatchEnabled() bool {
	return c.LocaleWatchEnabled
}

func (c *ConfigurationDefault) GetLocaleWatchPaths() []string {
	return c.LocaleWatchPaths
}

type ConfigurationTranslations interface {
	GetTranslationsPath() string
	GetTranslationsLanguages() []string
}

var _ ConfigurationTranslations = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetTranslationsPath() string {
	return c.TranslationsPath
}

func (c *ConfigurationDefault) GetTranslationsLanguages() []string {
	return c.TranslationsLanguages
}
