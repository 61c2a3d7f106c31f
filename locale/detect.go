package locale

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	// DefaultLanguage is used when no preferred language yields a subtag.
	DefaultLanguage = "en"
	// DefaultCountry is the last country fallback.
	DefaultCountry = "us"
)

// DetectLanguage returns the lowercase language subtag of the first preferred
// language, or DefaultLanguage.
func DetectLanguage(src Source) string {
	languages := src.PreferredLanguages()
	if len(languages) == 0 {
		return DefaultLanguage
	}

	if base, ok := LanguageSubtag(languages[0]); ok {
		return base
	}
	return DefaultLanguage
}

// DetectCountry resolves a lowercase country code, trying in order: the current
// region, the region embedded in the first preferred language, the time zone,
// the locale identifier and finally DefaultCountry.
func DetectCountry(src Source) string {
	if region := strings.TrimSpace(src.CurrentRegion()); region != "" {
		return strings.ToLower(region)
	}

	if languages := src.PreferredLanguages(); len(languages) > 0 {
		if region, ok := RegionSubtag(languages[0]); ok {
			return region
		}
	}

	if country, ok := CountryFromTimeZone(src.CurrentTimeZone()); ok {
		return country
	}

	if country, ok := countryFromIdentifier(src.CurrentLocaleIdentifier()); ok {
		return country
	}

	return DefaultCountry
}

// LanguageSubtag extracts the explicit language subtag of tag, lowercased.
// Inferred languages (e.g. for "und-JP") are not accepted.
func LanguageSubtag(tag string) (string, bool) {
	t, ok := parseTag(tag)
	if !ok {
		return "", false
	}

	base, confidence := t.Base()
	if confidence != language.Exact {
		return "", false
	}
	return strings.ToLower(base.String()), true
}

// RegionSubtag extracts the region subtag written in tag, lowercased.
// Regions x/text would only infer (e.g. FR for "fr") are not accepted.
func RegionSubtag(tag string) (string, bool) {
	t, ok := parseTag(tag)
	if !ok {
		return "", false
	}

	region, confidence := t.Region()
	if confidence != language.Exact {
		return "", false
	}
	return strings.ToLower(region.String()), true
}

func parseTag(tag string) (language.Tag, bool) {
	normalized := NormalizeTag(tag)
	if normalized == "" {
		return language.Und, false
	}

	// Raw keeps deprecated codes such as "iw" and never adds a region.
	t, err := language.Raw.Parse(normalized)
	if err != nil {
		return language.Und, false
	}
	return t, true
}

// countryFromIdentifier takes the last underscore separated component of a
// locale identifier when it is two characters long.
func countryFromIdentifier(identifier string) (string, bool) {
	components := strings.FieldsFunc(identifier, func(r rune) bool { return r == '_' })
	if len(components) < 2 {
		return "", false
	}

	last := components[len(components)-1]
	if len(last) != 2 {
		return "", false
	}
	return strings.ToLower(last), true
}
