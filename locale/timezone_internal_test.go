package locale

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type zoneTableSuite struct {
	suite.Suite
}

func TestZoneTableSuite(t *testing.T) {
	suite.Run(t, new(zoneTableSuite))
}

func (s *zoneTableSuite) TestEveryZoneMapsToItsCountry() {
	for _, zc := range zoneCountries {
		got, ok := CountryFromTimeZone(zc.zone)
		s.True(ok, zc.zone)
		s.Equal(strings.ToLower(zc.country), got, zc.zone)
	}
}

func (s *zoneTableSuite) TestEveryCityMapsToTheFirstEntryWithThatCity() {
	firstByCity := make(map[string]string, len(zoneCountries))
	for _, zc := range zoneCountries {
		city := zoneCity(zc.zone)
		if _, seen := firstByCity[city]; !seen {
			firstByCity[city] = strings.ToLower(zc.country)
		}
	}

	for _, zc := range zoneCountries {
		city := zoneCity(zc.zone)
		s.NotEmpty(city, zc.zone)

		got, ok := CountryFromTimeZone(city)
		s.True(ok, city)
		s.Equal(firstByCity[city], got, city)

		got, ok = CountryFromTimeZone("Legacy/Region/" + city)
		s.True(ok, city)
		s.Equal(firstByCity[city], got, city)
	}
}

func (s *zoneTableSuite) TestTableIsWellFormed() {
	seen := make(map[string]struct{}, len(zoneCountries))
	for _, zc := range zoneCountries {
		_, dup := seen[zc.zone]
		s.False(dup, "duplicate zone %s", zc.zone)
		seen[zc.zone] = struct{}{}

		s.Len(zc.country, 2, zc.zone)
		s.Equal(strings.ToUpper(zc.country), zc.country, zc.zone)
	}
}
