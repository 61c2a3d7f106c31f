package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) writeYAML(content string) string {
	path := filepath.Join(s.T().TempDir(), "userlocale.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ConfigSuite) TestContextHelpersAndKeyString() {
	ctx := context.Background()
	cfg := ConfigurationDefault{PreferencesStoreName: "prefs"}

	s.Equal("userlocale/config/configurationKey", ctxKeyConfiguration.String())

	ctx = ToContext(ctx, cfg)
	fromCtx := FromContext[ConfigurationDefault](ctx)
	s.Equal("prefs", fromCtx.PreferencesStoreName)

	missing := FromContext[*ConfigurationDefault](context.Background())
	s.Nil(missing)
}

func (s *ConfigSuite) TestFromEnvAndFillEnv() {
	type envCfg struct {
		Value string `env:"USERLOCALE_TEST_VALUE"`
	}

	s.T().Setenv("USERLOCALE_TEST_VALUE", "abc")

	fromEnv, err := FromEnv[envCfg]()
	s.Require().NoError(err)
	s.Equal("abc", fromEnv.Value)

	var target envCfg
	s.Require().NoError(FillEnv(&target))
	s.Equal("abc", target.Value)
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)

	s.Equal("info", cfg.LoggingLevel())
	s.False(cfg.LoggingLevelIsDebug())
	s.Empty(cfg.GetPreferencesStoreURI())
	s.Equal("userlocale", cfg.GetPreferencesStoreName())
	s.Equal("userlocale_secrets", cfg.GetSecretStoreName())
	s.Equal("preferences", cfg.GetPreferencesRecordKey())
	s.Equal("preferences.id", cfg.GetUserIDSecretKey())
	s.Equal(DefaultSecretKeeperURL, cfg.GetSecretKeeperURL())
	s.True(cfg.IsSecretKeeperEphemeral())
	s.True(cfg.SharesPreferencesStore())
	s.True(cfg.IsLocaleWatchEnabled())
	s.Empty(cfg.GetLocaleWatchPaths())
	s.Equal([]string{"en"}, cfg.GetTranslationsLanguages())
}

func (s *ConfigSuite) TestEnvironmentOverrides() {
	s.T().Setenv("LOG_LEVEL", "debug")
	s.T().Setenv("PREFERENCES_STORE_URI", "redis://localhost:6379/0")
	s.T().Setenv("SECRET_STORE_URI", "sqlite:///var/lib/userlocale/secrets.db")
	s.T().Setenv("SECRET_KEEPER_URL", "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4=")
	s.T().Setenv("LOCALE_WATCH", "false")
	s.T().Setenv("LOCALE_WATCH_PATHS", "/etc/locale.conf,/etc/localtime")
	s.T().Setenv("TRANSLATIONS_LANGUAGES", "en,fr,ja")

	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)

	s.True(cfg.LoggingLevelIsDebug())
	s.Equal("redis://localhost:6379/0", cfg.GetPreferencesStoreURI())
	s.Equal("sqlite:///var/lib/userlocale/secrets.db", cfg.GetSecretStoreURI())
	s.False(cfg.SharesPreferencesStore())
	s.False(cfg.IsSecretKeeperEphemeral())
	s.False(cfg.IsLocaleWatchEnabled())
	s.Equal([]string{"/etc/locale.conf", "/etc/localtime"}, cfg.GetLocaleWatchPaths())
	s.Equal([]string{"en", "fr", "ja"}, cfg.GetTranslationsLanguages())
}

func (s *ConfigSuite) TestFallbacks() {
	testCases := []struct {
		name           string
		cfg            ConfigurationDefault
		wantSecretURI  string
		wantSecretName string
		wantKeeper     string
	}{
		{
			name:           "secrets share the preferences store",
			cfg:            ConfigurationDefault{PreferencesStoreURI: " mem:// ", PreferencesStoreName: "prefs"},
			wantSecretURI:  "mem://",
			wantSecretName: "prefs_secrets",
			wantKeeper:     DefaultSecretKeeperURL,
		},
		{
			name: "explicit secret store",
			cfg: ConfigurationDefault{
				PreferencesStoreURI: "mem://",
				SecretStoreURI:      "valkey://cache:6379",
				SecretStoreName:     "ids",
				SecretKeeperURL:     "  ",
			},
			wantSecretURI:  "valkey://cache:6379",
			wantSecretName: "ids",
			wantKeeper:     DefaultSecretKeeperURL,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.wantSecretURI, tc.cfg.GetSecretStoreURI())
			s.Equal(tc.wantSecretName, tc.cfg.GetSecretStoreName())
			s.Equal(tc.wantKeeper, tc.cfg.GetSecretKeeperURL())
		})
	}
}

func (s *ConfigSuite) TestFromFile() {
	s.T().Setenv("LOG_LEVEL", "warn")
	s.T().Setenv("PREFERENCES_STORE_NAME", "from-env")

	path := s.writeYAML(`
log_time_format: "2006-01-02T15:04:05.000Z07:00"
preferences_store_uri: "sqlite:///tmp/prefs.db"
preferences_store_name: "from-file"
locale_watch: false
locale_watch_paths:
  - /etc/localtime
translations_languages: [en, de]
`)

	cfg, err := FromFile[ConfigurationDefault](path)
	s.Require().NoError(err)

	s.Equal("warn", cfg.LoggingLevel())
	s.Equal("2006-01-02T15:04:05.000Z07:00", cfg.LoggingTimeFormat())
	s.Equal("sqlite:///tmp/prefs.db", cfg.GetPreferencesStoreURI())
	s.Equal("from-file", cfg.GetPreferencesStoreName())
	s.False(cfg.IsLocaleWatchEnabled())
	s.Equal([]string{"/etc/localtime"}, cfg.GetLocaleWatchPaths())
	s.Equal([]string{"en", "de"}, cfg.GetTranslationsLanguages())
	s.Equal("preferences.id", cfg.GetUserIDSecretKey())
}

func (s *ConfigSuite) TestFromFileErrors() {
	_, err := FromFile[ConfigurationDefault](filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)

	path := s.writeYAML("log_level: [unterminated")
	_, err = FromFile[ConfigurationDefault](path)
	s.Error(err)
}

func (s *ConfigSuite) TestLoad() {
	s.T().Setenv("LOG_LEVEL", "error")

	cfg, err := Load[ConfigurationDefault]("")
	s.Require().NoError(err)
	s.Equal("error", cfg.LoggingLevel())

	cfg, err = Load[ConfigurationDefault](filepath.Join(s.T().TempDir(), "absent.yaml"))
	s.Require().NoError(err)
	s.Equal("error", cfg.LoggingLevel())

	path := s.writeYAML("log_level: trace\n")
	cfg, err = Load[ConfigurationDefault](path)
	s.Require().NoError(err)
	s.Equal("trace", cfg.LoggingLevel())
}

func (s *ConfigSuite) TestLoggingGetters() {
	cfg := &ConfigurationDefault{
		LogLevel:          "trace",
		LogFormat:         "json",
		LogTimeFormat:     time.RFC3339,
		LogColored:        true,
		LogShowStackTrace: true,
	}

	s.Equal("trace", cfg.LoggingLevel())
	s.Equal("json", cfg.LoggingFormat())
	s.Equal(time.RFC3339, cfg.LoggingTimeFormat())
	s.True(cfg.LoggingColored())
	s.True(cfg.LoggingShowStackTrace())
	s.True(cfg.LoggingLevelIsDebug())
}
