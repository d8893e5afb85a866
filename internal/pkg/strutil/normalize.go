// Package strutil holds the normalization helpers shared by the lookup,
// notification, and composer code paths.
//
// City matching policy: the pickup-point directory is matched with
// NormalizeCity at compare time (trim, case-fold, diacritic-fold), so
// "Montréal", "montreal" and "MONTREAL" all resolve to the same entry.
// The convoy city bulk filter deliberately stays exact-match as stored;
// see the convoy service.
package strutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeEmail trims and lower-cases an email address. Empty in, empty out.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCity trims, lower-cases, and strips diacritics from a city name.
// "Montréal " → "montreal".
func NormalizeCity(city string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	folded, _, err := transform.String(diacriticFolder, city)
	if err != nil {
		return city
	}
	return folded
}

// NormalizePhone strips everything but digits. "+1 (514) 555-0199" →
// "15145550199".
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
