// Package preferences persists the preferences record and the user identifier.
//
// The record and the identifier travel through two ports of one Repository:
// the record port serialises Record, which has no identifier field, and the
// secret port keeps the identifier in a separate, sealed store.
package preferences

import "time"

// Record is the persisted form of the user's locale preferences.
type Record struct {
	Language       string    `json:"language"`
	Country        string    `json:"country"`
	CustomLanguage string    `json:"customLanguage,omitempty"`
	CustomCountry  string    `json:"customCountry,omitempty"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// IsZero reports whether the record carries no detected values.
func (r Record) IsZero() bool {
	return r.Language == "" && r.Country == ""
}
