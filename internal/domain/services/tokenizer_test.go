package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByline(t *testing.T) {
	tests := []struct {
		raw              string
		wantAuthors      string
		wantAffiliations string
	}{
		{raw: "Gasman", wantAuthors: "Gasman"},
		{raw: "Gasman / Raww Arse", wantAuthors: "Gasman ", wantAffiliations: " Raww Arse"},
		{raw: "A / B / C", wantAuthors: "A ", wantAffiliations: " B ^ C"},
		{raw: "/ Hooy-Program", wantAuthors: "", wantAffiliations: " Hooy-Program"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			authors, affiliations := SplitByline(tt.raw)
			assert.Equal(t, tt.wantAuthors, authors)
			assert.Equal(t, tt.wantAffiliations, affiliations)
		})
	}
}

func TestTokenizeSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		want    []string
	}{
		{name: "single", segment: " Gasman ", want: []string{"Gasman"}},
		{name: "comma", segment: "A, B", want: []string{"A", "B"}},
		{name: "plus", segment: "A + B", want: []string{"A", "B"}},
		{name: "caret", segment: "C ^ D", want: []string{"C", "D"}},
		{name: "ampersand", segment: "Tom & Jerry", want: []string{"Tom", "Jerry"}},
		{name: "mixed", segment: "A, B + C & D", want: []string{"A", "B", "C", "D"}},
		{name: "separator without space kept", segment: "Foo+Bar, Baz", want: []string{"Foo+Bar", "Baz"}},
		{name: "empty tokens dropped", segment: "A, , B", want: []string{"A", "B"}},
		{name: "empty", segment: "   ", want: []string{}},
		{name: "stray punctuation", segment: ",", want: []string{","}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenizeSegment(tt.segment))
		})
	}
}

func TestSplitToken(t *testing.T) {
	assert.Equal(t, []string{"Foo", "Bar"}, SplitToken("Foo+Bar"))
	assert.Equal(t, []string{"A", "B", "C"}, SplitToken("A,B^C"))
	assert.Equal(t, []string{}, SplitToken(",+"))
}

func TestEndsWithSeparator(t *testing.T) {
	tests := map[string]bool{
		"Gasman":        false,
		"Gasman ":       false,
		"Gasman,":       true,
		"Gasman, ":      true,
		"Gasman /":      true,
		"Gasman / ":     true,
		"A + B ^":       true,
		"Gasman / Raww": false,
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, EndsWithSeparator(raw))
		})
	}
}

func TestRevetTokens(t *testing.T) {
	known := map[string]bool{"Foo+Bar": true}
	exists := func(token string) (bool, error) { return known[token], nil }

	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{name: "plain tokens untouched", tokens: []string{"A", "B"}, want: []string{"A", "B"}},
		{name: "known name kept whole", tokens: []string{"Foo+Bar"}, want: []string{"Foo+Bar"}},
		{name: "unknown name split", tokens: []string{"Foo+Baz"}, want: []string{"Foo", "Baz"}},
		{name: "trailing separator dropped", tokens: []string{"A,"}, want: []string{"A"}},
		{name: "only punctuation vanishes", tokens: []string{","}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RevetTokens(tt.tokens, exists)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("lookup error", func(t *testing.T) {
		_, err := RevetTokens([]string{"A+B"}, func(string) (bool, error) { return false, errors.New("boom") })
		require.Error(t, err)
	})
}

func TestFormatByline(t *testing.T) {
	assert.Equal(t, "Gasman", FormatByline([]string{"Gasman"}, nil))
	assert.Equal(t, "A, B / C ^ D", FormatByline([]string{"A", "B"}, []string{"C", "D"}))
}
