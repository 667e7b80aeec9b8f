package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/scenecredits/internal/infrastructure/parsers"
)

func sampleReleasers() []parsers.RawReleaser {
	return []parsers.RawReleaser{
		{Name: "Hooy-Program", Kind: "group", Country: "fi"},
		{Name: "Gasman", Kind: "person", Country: "gb", Aliases: []string{"Gas Man", "MW"}, Groups: []string{"Hooy-Program", "Raww Arse"}},
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	err := formatJSON(&buf, sampleReleasers())
	require.NoError(t, err)

	var parsed []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	require.Len(t, parsed, 2)
	assert.Equal(t, "Hooy-Program", parsed[0]["name"])
	assert.Equal(t, "group", parsed[0]["kind"])
	assert.NotContains(t, parsed[0], "aliases")
	assert.Equal(t, []interface{}{"Gas Man", "MW"}, parsed[1]["aliases"])
}

func TestFormatJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := formatJSON(&buf, []parsers.RawReleaser{})
	require.NoError(t, err)
	assert.Equal(t, "[]\n", buf.String())
}

func TestFormatCSV(t *testing.T) {
	var buf bytes.Buffer
	err := formatCSV(&buf, sampleReleasers())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,kind,country,aliases,groups", lines[0])
	assert.Equal(t, "Hooy-Program,group,fi,,", lines[1])
	assert.Equal(t, "Gasman,person,gb,Gas Man;MW,Hooy-Program;Raww Arse", lines[2])
}

func TestFormat_RoundTripsThroughParsers(t *testing.T) {
	for _, format := range validFormats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, formatReleasers(&buf, format, sampleReleasers()))

			parser := parsers.ForFormat(format)
			require.NotNil(t, parser)

			got, err := parser.Parse(&buf)
			require.NoError(t, err)
			require.Len(t, got, 2)

			for i, want := range sampleReleasers() {
				assert.Equal(t, want.Name, got[i].Name)
				assert.Equal(t, want.Kind, got[i].Kind)
				assert.Equal(t, want.Country, got[i].Country)
				assert.Equal(t, want.Aliases, got[i].Aliases)
				assert.Equal(t, want.Groups, got[i].Groups)
			}
		})
	}
}

func TestFormatReleasers_UnknownFormat(t *testing.T) {
	err := formatReleasers(&bytes.Buffer{}, "markdown", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestParseKindFilter(t *testing.T) {
	for _, k := range validKinds {
		_, err := parseKindFilter(k)
		assert.NoError(t, err, k)
	}
	_, err := parseKindFilter("robot")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
