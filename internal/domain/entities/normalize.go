package entities

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MatchKey is the case-folded, trimmed form used for exact and prefix matching.
func MatchKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PrefixKey is the case-folded form of a partial name used for prefix
// matching. Only leading space is dropped, since trailing space is part of
// what was typed.
func PrefixKey(partial string) string {
	return strings.ToLower(strings.TrimLeftFunc(partial, unicode.IsSpace))
}

// SearchKey folds a name down to lowercase ASCII for sorting.
// Accented letters lose their marks ("Mökkö" -> "mokko"); other non-ASCII
// runes are dropped and runs of whitespace collapse to one space.
func SearchKey(name string) string {
	decomposed := norm.NFD.String(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(decomposed))
	prevSpace := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsSpace(r):
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
				prevSpace = true
			}
		case r < unicode.MaxASCII:
			b.WriteRune(unicode.ToLower(r))
			prevSpace = false
		}
	}
	return strings.TrimRight(b.String(), " ")
}
