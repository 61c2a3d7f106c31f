package userlocale

import (
	"time"

	"github.com/pitabwire/userlocale/preferences"
)

// Snapshot is an immutable view of the preferences at one point in time.
// A new snapshot is published after every mutation.
type Snapshot struct {
	UserID         string
	Language       string
	Country        string
	CustomLanguage string
	CustomCountry  string
	LastUpdated    time.Time
}

// EffectiveLanguage returns the custom language when set, else the detected one.
func (s Snapshot) EffectiveLanguage() string {
	if s.CustomLanguage != "" {
		return s.CustomLanguage
	}
	return s.Language
}

// EffectiveCountry returns the custom country when set, else the detected one.
func (s Snapshot) EffectiveCountry() string {
	if s.CustomCountry != "" {
		return s.CustomCountry
	}
	return s.Country
}

// Record returns the persisted form. The identifier is not part of it.
func (s Snapshot) Record() preferences.Record {
	return preferences.Record{
		Language:       s.Language,
		Country:        s.Country,
		CustomLanguage: s.CustomLanguage,
		CustomCountry:  s.CustomCountry,
		LastUpdated:    s.LastUpdated,
	}
}

func (s Snapshot) withRecord(record preferences.Record) Snapshot {
	if record.Language != "" {
		s.Language = record.Language
	}
	if record.Country != "" {
		s.Country = record.Country
	}
	s.CustomLanguage = record.CustomLanguage
	s.CustomCountry = record.CustomCountry
	if !record.LastUpdated.IsZero() {
		s.LastUpdated = record.LastUpdated
	}
	return s
}
