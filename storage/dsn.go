package storage

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Schemes understood by DSN.
const (
	MemScheme      = "mem://"
	SQLiteScheme   = "sqlite://"
	FileScheme     = "file://"
	RedisScheme    = "redis://"
	ValkeyScheme   = "valkey://"
	NatsScheme     = "nats://"
	PostgresScheme = "postgres"
)

// A DSN for conveniently handling a URI connection string.
type DSN string

func (d DSN) String() string {
	return string(d)
}

func (d DSN) IsMem() bool {
	return d == "" || strings.HasPrefix(string(d), MemScheme)
}

func (d DSN) IsSQLite() bool {
	return strings.HasPrefix(string(d), SQLiteScheme) || strings.HasPrefix(string(d), FileScheme)
}

func (d DSN) IsRedis() bool {
	return strings.HasPrefix(string(d), RedisScheme)
}

func (d DSN) IsValkey() bool {
	return strings.HasPrefix(string(d), ValkeyScheme)
}

func (d DSN) IsNats() bool {
	return strings.HasPrefix(string(d), NatsScheme)
}

func (d DSN) IsPostgres() bool {
	u, err := url.Parse(string(d))
	if err == nil && (u.Scheme == PostgresScheme || u.Scheme == "postgresql") {
		return true
	}
	return strings.HasPrefix(string(d), PostgresScheme+"://")
}

// ToURI parses the DSN as a URL.
func (d DSN) ToURI() (*url.URL, error) {
	return url.Parse(string(d))
}

// FilePath returns the file system path of a sqlite:// or file:// DSN.
// Both "sqlite:///abs/path.db" and "sqlite://relative.db" are accepted.
func (d DSN) FilePath() string {
	s := string(d)
	switch {
	case strings.HasPrefix(s, SQLiteScheme):
		s = strings.TrimPrefix(s, SQLiteScheme)
	case strings.HasPrefix(s, FileScheme):
		s = strings.TrimPrefix(s, FileScheme)
	}

	if idx := strings.Index(s, "?"); idx >= 0 {
		s = s[:idx]
	}
	return filepath.Clean(s)
}

// WithScheme swaps the scheme of the DSN, leaving the rest untouched.
func (d DSN) WithScheme(scheme string) DSN {
	s := string(d)
	idx := strings.Index(s, "://")
	if idx < 0 {
		return d
	}
	return DSN(strings.TrimSuffix(scheme, "://") + s[idx:])
}
