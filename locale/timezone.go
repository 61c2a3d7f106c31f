package locale

import "strings"

type zoneCountry struct {
	zone    string
	country string
}

// zoneCountries maps common IANA zones to ISO 3166 country codes. Order matters
// for city matching: the first entry whose city matches wins.
var zoneCountries = []zoneCountry{
	// Americas
	{"America/New_York", "US"},
	{"America/Chicago", "US"},
	{"America/Los_Angeles", "US"},
	{"America/Toronto", "CA"},
	{"America/Mexico_City", "MX"},
	{"America/Sao_Paulo", "BR"},
	{"America/Buenos_Aires", "AR"},
	{"America/Denver", "US"},
	{"America/Phoenix", "US"},
	{"America/Anchorage", "US"},
	{"America/Vancouver", "CA"},
	{"America/Bogota", "CO"},
	{"America/Lima", "PE"},
	{"America/Santiago", "CL"},

	// Europe
	{"Europe/London", "GB"},
	{"Europe/Paris", "FR"},
	{"Europe/Berlin", "DE"},
	{"Europe/Rome", "IT"},
	{"Europe/Madrid", "ES"},
	{"Europe/Amsterdam", "NL"},
	{"Europe/Moscow", "RU"},
	{"Europe/Dublin", "IE"},
	{"Europe/Lisbon", "PT"},
	{"Europe/Stockholm", "SE"},
	{"Europe/Zurich", "CH"},
	{"Europe/Warsaw", "PL"},
	{"Europe/Istanbul", "TR"},

	// Asia
	{"Asia/Tokyo", "JP"},
	{"Asia/Shanghai", "CN"},
	{"Asia/Hong_Kong", "HK"},
	{"Asia/Singapore", "SG"},
	{"Asia/Seoul", "KR"},
	{"Asia/Kolkata", "IN"},
	{"Asia/Dubai", "AE"},
	{"Asia/Bangkok", "TH"},
	{"Asia/Jakarta", "ID"},
	{"Asia/Manila", "PH"},
	{"Asia/Karachi", "PK"},

	// Oceania
	{"Australia/Sydney", "AU"},
	{"Australia/Melbourne", "AU"},
	{"Pacific/Auckland", "NZ"},
	{"Pacific/Honolulu", "US"},

	// Africa
	{"Africa/Johannesburg", "ZA"},
	{"Africa/Cairo", "EG"},
	{"Africa/Lagos", "NG"},
	{"Africa/Nairobi", "KE"},
}

var zoneIndex = func() map[string]string {
	idx := make(map[string]string, len(zoneCountries))
	for _, zc := range zoneCountries {
		idx[zc.zone] = zc.country
	}
	return idx
}()

// CountryFromTimeZone maps a zone identifier to a lowercase country code.
// An exact match is preferred; otherwise the zone's city (its last path
// component) is compared with the city of every known zone, so that
// "America/Argentina/Buenos_Aires" resolves like "America/Buenos_Aires".
func CountryFromTimeZone(zone string) (string, bool) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return "", false
	}

	if country, ok := zoneIndex[zone]; ok {
		return strings.ToLower(country), true
	}

	city := zoneCity(zone)
	if city == "" {
		return "", false
	}

	for _, zc := range zoneCountries {
		if zoneCity(zc.zone) == city {
			return strings.ToLower(zc.country), true
		}
	}

	return "", false
}

func zoneCity(zone string) string {
	components := strings.FieldsFunc(zone, func(r rune) bool { return r == '/' })
	if len(components) == 0 {
		return ""
	}
	return components[len(components)-1]
}
