package services

import (
	"regexp"
	"strings"
)

const separatorChars = ",+^&"

var (
	// A separator only splits when followed by whitespace, so "Foo+Bar" survives.
	spacedSeparator   = regexp.MustCompile(`[,+^&]\s+`)
	anySeparator      = regexp.MustCompile(`[,+^&]`)
	trailingSeparator = regexp.MustCompile(`[/,+^&]\s*$`)
)

// SplitByline divides a raw byline into its author and affiliation
// segments at the first "/". Further slashes in the affiliation segment
// act as "^".
func SplitByline(raw string) (authors, affiliations string) {
	authors, affiliations, found := strings.Cut(raw, "/")
	if !found {
		return raw, ""
	}
	return authors, strings.ReplaceAll(affiliations, "/", "^")
}

// TokenizeSegment splits a byline segment into trimmed, non-empty names.
func TokenizeSegment(segment string) []string {
	return splitTrim(spacedSeparator, segment)
}

// SplitToken splits a single token on every separator character,
// whitespace or not.
func SplitToken(token string) []string {
	return splitTrim(anySeparator, token)
}

// HasSeparator reports whether token contains a separator character.
func HasSeparator(token string) bool {
	return strings.ContainsAny(token, separatorChars)
}

// EndsWithSeparator reports whether raw ends in "/" or a separator,
// ignoring trailing whitespace.
func EndsWithSeparator(raw string) bool {
	return trailingSeparator.MatchString(raw)
}

// RevetTokens re-splits tokens that still contain separator characters,
// unless exists reports the whole token as a known name.
func RevetTokens(tokens []string, exists func(token string) (bool, error)) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !HasSeparator(token) {
			out = append(out, token)
			continue
		}
		ok, err := exists(token)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, token)
			continue
		}
		out = append(out, SplitToken(token)...)
	}
	return out, nil
}

// FormatByline renders names back to byline text.
func FormatByline(authors, affiliations []string) string {
	text := strings.Join(authors, ", ")
	if len(affiliations) > 0 {
		text += " / " + strings.Join(affiliations, " ^ ")
	}
	return text
}

func splitTrim(re *regexp.Regexp, s string) []string {
	parts := re.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
