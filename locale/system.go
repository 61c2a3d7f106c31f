package locale

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvGetter looks up an environment variable.
type EnvGetter func(string) string

// Files consulted for the host time zone and locale, relative to the root.
const (
	LocaltimeFile   = "/etc/localtime"
	TimezoneFile    = "/etc/timezone"
	LocaleConfFile  = "/etc/locale.conf"
	DefaultLocaleRC = "/etc/default/locale"
)

const (
	zoneinfoMarker   = "zoneinfo/"
	languageListSep  = ":"
	posixLocale      = "POSIX"
	cLocale          = "C"
	defaultRootPath  = "/"
	localZoneUnnamed = "Local"
)

// localeEnvVars are checked in order of precedence for the current locale.
var localeEnvVars = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// SystemOption configures a System source.
type SystemOption func(*System)

// WithEnvGetter replaces os.Getenv, mostly for tests.
func WithEnvGetter(getter EnvGetter) SystemOption {
	return func(s *System) {
		s.getenv = getter
	}
}

// WithRoot resolves the /etc files against root instead of "/".
// Falling back to the process time zone is disabled for non default roots.
func WithRoot(root string) SystemOption {
	return func(s *System) {
		s.root = root
	}
}

// System reads locale signals from the environment and the host configuration files.
type System struct {
	getenv EnvGetter
	root   string
}

// NewSystem creates a Source backed by the running host.
func NewSystem(opts ...SystemOption) *System {
	s := &System{
		getenv: os.Getenv,
		root:   defaultRootPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WatchPaths lists the files whose change should trigger a refresh.
func (s *System) WatchPaths() []string {
	return []string{
		s.path(LocaltimeFile),
		s.path(TimezoneFile),
		s.path(LocaleConfFile),
		s.path(DefaultLocaleRC),
	}
}

// PreferredLanguages honours the GNU LANGUAGE priority list first, then the
// current locale.
func (s *System) PreferredLanguages() []string {
	var languages []string

	if list := s.getenv("LANGUAGE"); list != "" {
		for _, entry := range strings.Split(list, languageListSep) {
			if tag := NormalizeTag(entry); tag != "" {
				languages = append(languages, tag)
			}
		}
	}

	if len(languages) == 0 {
		if tag := NormalizeTag(s.CurrentLocaleIdentifier()); tag != "" {
			languages = append(languages, tag)
		}
	}

	return languages
}

// CurrentRegion returns the region written in the current locale, if any.
func (s *System) CurrentRegion() string {
	region, _ := RegionSubtag(s.CurrentLocaleIdentifier())
	return region
}

// CurrentLocaleIdentifier returns the first usable locale among LC_ALL,
// LC_MESSAGES, LANG and the locale configuration files, e.g. "en_US".
func (s *System) CurrentLocaleIdentifier() string {
	for _, envVar := range localeEnvVars {
		if id := NormalizeIdentifier(s.getenv(envVar)); id != "" {
			return id
		}
	}

	for _, file := range []string{LocaleConfFile, DefaultLocaleRC} {
		if id := s.localeFromConfFile(s.path(file)); id != "" {
			return id
		}
	}

	return ""
}

// CurrentTimeZone returns the zone from TZ, the /etc/localtime link, /etc/timezone
// or the process local zone, in that order.
func (s *System) CurrentTimeZone() string {
	if tz := strings.TrimPrefix(strings.TrimSpace(s.getenv("TZ")), ":"); tz != "" {
		if idx := strings.Index(tz, zoneinfoMarker); idx >= 0 {
			return tz[idx+len(zoneinfoMarker):]
		}
		return tz
	}

	if target, err := os.Readlink(s.path(LocaltimeFile)); err == nil {
		if idx := strings.Index(target, zoneinfoMarker); idx >= 0 {
			return target[idx+len(zoneinfoMarker):]
		}
	}

	if data, err := os.ReadFile(s.path(TimezoneFile)); err == nil {
		if tz := strings.TrimSpace(string(data)); tz != "" {
			return tz
		}
	}

	if s.root == defaultRootPath {
		if name := time.Local.String(); name != localZoneUnnamed {
			return name
		}
	}

	return ""
}

func (s *System) path(file string) string {
	return filepath.Join(s.root, file)
}

// localeFromConfFile reads LANG= (or LC_ALL=) from a shell style assignment file.
func (s *System) localeFromConfFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	values := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}

	for _, envVar := range localeEnvVars {
		if id := NormalizeIdentifier(values[envVar]); id != "" {
			return id
		}
	}
	return ""
}

// NormalizeIdentifier strips the codeset and modifier from a POSIX locale name:
// "en_US.UTF-8@euro" becomes "en_US". "C" and "POSIX" carry no locale and become "".
func NormalizeIdentifier(locale string) string {
	locale = strings.TrimSpace(locale)

	if idx := strings.Index(locale, "."); idx >= 0 {
		locale = locale[:idx]
	}
	if idx := strings.Index(locale, "@"); idx >= 0 {
		locale = locale[:idx]
	}

	switch locale {
	case cLocale, posixLocale:
		return ""
	}
	return locale
}

// NormalizeTag converts a POSIX locale name or BCP 47 tag to BCP 47 form:
// "fr_CA.UTF-8" becomes "fr-CA".
func NormalizeTag(locale string) string {
	return strings.ReplaceAll(NormalizeIdentifier(locale), "_", "-")
}
