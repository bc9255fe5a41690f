package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	unsafePattern     = regexp.MustCompile(`[^a-z0-9_-]+`)
	lowerCaser        = cases.Lower(language.Und)
)

// FormatName converts value into a path segment. It returns "" when nothing
// usable remains.
func FormatName(value string) string {
	value = norm.NFC.String(value)
	value = nonWordPattern.ReplaceAllString(value, "")
	value = hyphenate(lowerCaser.String(value))
	if value == "" {
		return ""
	}

	// Transliteration can introduce spaces ("北京" -> "Bei Jing ") and
	// placeholder punctuation, so normalize once more.
	value = hyphenate(strings.ToLower(unidecode.Unidecode(value)))
	value = unsafePattern.ReplaceAllString(value, "")
	return strings.Trim(value, "-")
}

// FormatWithFallback formats primary, falling back to alt, then to the
// spelled-out forms of primary and alt. It returns "" when every candidate is
// empty after formatting.
func FormatWithFallback(primary, alt string) string {
	for _, candidate := range []string{primary, alt, SpellSpecialChars(primary), SpellSpecialChars(alt)} {
		if formatted := FormatName(candidate); formatted != "" {
			return formatted
		}
	}
	return ""
}

// Fold lowercases value and strips combining marks so "Björk" and "bjork"
// compare equal.
func Fold(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.Join(strings.Fields(lowerCaser.String(folded)), " ")
}

func hyphenate(value string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(value), "-")
}
