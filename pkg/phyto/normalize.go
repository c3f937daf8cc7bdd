// CLAUDE:SUMMARY Text normalization strategies (full name canonicalization, lowercase+strip-accents, lowercase+trim, none) for registry matching.
package phyto

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms a term before lookup.
type Normalizer func(string) string

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName is the canonical form used on both sides of every name comparison:
// lowercase, accents stripped, anything outside [a-z0-9] turned into a space,
// whitespace collapsed and trimmed. "Dimaté-BF  400®" -> "dimate bf 400".
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}
	folded, _, _ := transform.String(norm.NFD, strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// NormalizeLowercaseASCII lowercases and strips accents (e.g. DUPONT, Élodie -> elodie).
func NormalizeLowercaseASCII(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}

// NormalizeLowercaseTrim lowercases and trims. This is the convention of the
// curated secondary-name table.
func NormalizeLowercaseTrim(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// NormalizeNone returns the term unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given mode.
// Default is name.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "name":
		return NormalizeName
	case "lowercase_ascii":
		return NormalizeLowercaseASCII
	case "lowercase_trim":
		return NormalizeLowercaseTrim
	case "none":
		return NormalizeNone
	default:
		return NormalizeName
	}
}
