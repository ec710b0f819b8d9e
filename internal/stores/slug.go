package stores

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugSeparatorRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value, folds accents to ASCII and collapses every other
// run of characters into a single dash.
//
//	"Café Downtown #2" => "cafe-downtown-2"
func Slugify(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}
	slug := slugSeparatorRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(folded)), "-")
	return strings.Trim(slug, "-")
}
