package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NameKey reduces a product name to its duplicate-detection key: lowercase,
// diacritics stripped, whitespace collapsed. "Café  Molido" and "cafe molido"
// produce the same key.
func NameKey(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Slugify turns a name into an SKU-safe fragment: diacritics stripped,
// non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	key := NameKey(name)
	var b strings.Builder
	lastHyphen := true
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// MakeSKU derives the once-assigned SKU from the product name and id,
// e.g. "TOMATO-SAU-3f2a".
func MakeSKU(name, id string) string {
	base := Slugify(name)
	if len(base) > 10 {
		base = base[:10]
	}
	base = strings.TrimSuffix(base, "-")
	if base == "" {
		base = "item"
	}
	prefix := id
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return strings.ToUpper(base) + "-" + prefix
}
