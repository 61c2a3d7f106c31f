// Package locale reads the user's locale signals from the host and resolves
// them into a language and a country code.
package locale

import (
	"context"
	"slices"
	"sync"
)

// Source supplies the raw locale signals the detectors work from.
type Source interface {
	// PreferredLanguages returns the user's ordered language preferences as BCP 47 tags.
	PreferredLanguages() []string
	// CurrentRegion returns the region of the current locale, or "" when the locale has none.
	CurrentRegion() string
	// CurrentTimeZone returns an IANA zone identifier such as "Asia/Tokyo", or "".
	CurrentTimeZone() string
	// CurrentLocaleIdentifier returns the current locale in underscore form, e.g. "ja_JP".
	CurrentLocaleIdentifier() string
}

// Event signals that the host locale or time zone may have changed.
// Path names the file that triggered it and is informational only.
type Event struct {
	Path string
}

// Watcher delivers change events until ctx is done, then closes the channel.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Values is a fixed set of locale signals. It satisfies Source.
type Values struct {
	Languages  []string
	Region     string
	TimeZone   string
	Identifier string
}

func (v Values) PreferredLanguages() []string {
	return slices.Clone(v.Languages)
}

func (v Values) CurrentRegion() string {
	return v.Region
}

func (v Values) CurrentTimeZone() string {
	return v.TimeZone
}

func (v Values) CurrentLocaleIdentifier() string {
	return v.Identifier
}

// Static is a Source whose values can be swapped at runtime, which is handy
// for embedding hosts that push locale state in and for tests.
type Static struct {
	mu sync.RWMutex
	v  Values
}

// NewStatic creates a Static source holding v.
func NewStatic(v Values) *Static {
	return &Static{v: v}
}

// Update replaces the held values.
func (s *Static) Update(v Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}

func (s *Static) values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

func (s *Static) PreferredLanguages() []string {
	return s.values().PreferredLanguages()
}

func (s *Static) CurrentRegion() string {
	return s.values().CurrentRegion()
}

func (s *Static) CurrentTimeZone() string {
	return s.values().CurrentTimeZone()
}

func (s *Static) CurrentLocaleIdentifier() string {
	return s.values().CurrentLocaleIdentifier()
}
