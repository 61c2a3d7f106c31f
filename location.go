package userlocale

import (
	"context"
	"strings"
)

// CountryLocator reverse geocodes the device position into an ISO 3166-1
// alpha-2 country code.
type CountryLocator interface {
	CurrentCountry(ctx context.Context) (string, error)
}

// CountryLocatorFunc adapts a function to CountryLocator.
type CountryLocatorFunc func(ctx context.Context) (string, error)

func (f CountryLocatorFunc) CurrentCountry(ctx context.Context) (string, error) {
	return f(ctx)
}

// UpdateCountryFromLocation replaces the detected country with the one the
// locator reports, then stamps and persists the record. The locator runs
// without holding the record lock.
func (r *Resolver) UpdateCountryFromLocation(ctx context.Context, locator CountryLocator) (string, bool) {
	if locator == nil {
		return "", false
	}

	log := r.Log(ctx)

	country, err := locator.CurrentCountry(ctx)
	if err != nil {
		log.WithError(err).Warn("could not locate current country")
		return "", false
	}

	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		log.Debug("location did not resolve to a country")
		return "", false
	}

	r.mutate(ctx, "update country from location", func(snap *Snapshot) {
		snap.Country = country
	})
	return country, true
}
