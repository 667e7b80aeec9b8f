package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/scenecredits/internal/domain/entities"
)

func TestBylineParser_Parse_Tokens(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.person(t, "Foo+Bar")
	env.group(t, "Acme+Co")

	tests := []struct {
		name             string
		raw              string
		wantAuthors      []string
		wantAffiliations []string
	}{
		{name: "author and group", raw: "Gasman / Raww Arse", wantAuthors: []string{"Gasman"}, wantAffiliations: []string{"Raww Arse"}},
		{name: "several of each", raw: "A + B / C ^ D", wantAuthors: []string{"A", "B"}, wantAffiliations: []string{"C", "D"}},
		{name: "extra slashes", raw: "A / B / C", wantAuthors: []string{"A"}, wantAffiliations: []string{"B", "C"}},
		{name: "known punctuated name", raw: "Foo+Bar", wantAuthors: []string{"Foo+Bar"}, wantAffiliations: []string{}},
		{name: "unknown punctuated name", raw: "Foo+Baz", wantAuthors: []string{"Foo", "Baz"}, wantAffiliations: []string{}},
		{name: "group name is not an author", raw: "Acme+Co", wantAuthors: []string{"Acme", "Co"}, wantAffiliations: []string{}},
		{name: "punctuated group kept", raw: "X / Acme+Co", wantAuthors: []string{"X"}, wantAffiliations: []string{"Acme+Co"}},
		{name: "spaced ampersand splits group", raw: "X / Tom & Jerry", wantAuthors: []string{"X"}, wantAffiliations: []string{"Tom", "Jerry"}},
		{name: "empty", raw: "", wantAuthors: []string{}, wantAffiliations: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := env.parser.Parse(ctx, tt.raw, ParseOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAuthors, parsed.AuthorNames)
			assert.Equal(t, tt.wantAffiliations, parsed.AffiliationNames)
			assert.Len(t, parsed.Authors, len(tt.wantAuthors))
			assert.Len(t, parsed.Affiliations, len(tt.wantAffiliations))
		})
	}
}

func TestBylineParser_Parse_ReciprocalContext(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.person(t, "Gasman")
	hooyMember, hooyGasman := env.person(t, "Gasman")
	hooy, hooyNick := env.group(t, "Hooy-Program")
	env.member(t, hooyMember.ID, hooy.ID)

	other, _ := env.group(t, "Hooy-Program")
	lone, _ := env.person(t, "Somebody")
	env.member(t, lone.ID, other.ID)

	parsed, err := env.parser.Parse(ctx, "Gasman / Hooy-Program", ParseOptions{})
	require.NoError(t, err)

	require.Len(t, parsed.Authors, 1)
	require.Len(t, parsed.Affiliations, 1)
	assert.Equal(t, hooyGasman.ID, parsed.Authors[0].Selection.NickID())
	assert.Equal(t, hooyNick.ID, parsed.Affiliations[0].Selection.NickID())
	assert.Equal(t, entities.GroupsOnly, parsed.Affiliations[0].Kind)
	assert.True(t, parsed.Resolved())
}

func TestBylineParser_Parse_Unresolved(t *testing.T) {
	env := newTestEnv(t)

	parsed, err := env.parser.Parse(context.Background(), "Nobody / Nogroup", ParseOptions{})
	require.NoError(t, err)

	assert.False(t, parsed.Resolved())
	assert.Equal(t, []string{"new_person:Nobody", "new_group:Nobody"}, suggestionKeys(parsed.Authors[0]))
	assert.Equal(t, []string{"new_group:Nogroup"}, suggestionKeys(parsed.Affiliations[0]))
}

func TestBylineParser_Parse_PriorSelections(t *testing.T) {
	env := newTestEnv(t)
	env.person(t, "Gasman")
	env.person(t, "Gasman")

	prior := entities.Pending("Gasman", entities.KindPerson)
	parsed, err := env.parser.Parse(context.Background(), "Gasman, Other", ParseOptions{
		AuthorSelections: []entities.Selection{prior},
	})
	require.NoError(t, err)

	assert.True(t, parsed.Authors[0].Selection.Equal(prior))
	assert.False(t, parsed.Authors[1].HasSelection())
}

func TestBylineParser_Parse_Autocomplete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.person(t, "Gasman")
	env.group(t, "Raww Arse")
	env.group(t, "Andromeda Software Development")

	tests := []struct {
		name             string
		raw              string
		wantText         string
		wantSuffix       string
		wantAuthors      []string
		wantAffiliations []string
	}{
		{
			name:        "completes author",
			raw:         "Gas",
			wantText:    "Gasman",
			wantSuffix:  "man",
			wantAuthors: []string{"Gasman"}, wantAffiliations: []string{},
		},
		{
			name:        "completes last affiliation",
			raw:         "Gasman / Raww",
			wantText:    "Gasman / Raww Arse",
			wantSuffix:  " Arse",
			wantAuthors: []string{"Gasman"}, wantAffiliations: []string{"Raww Arse"},
		},
		{
			name:        "trailing space counts",
			raw:         "Gasman / Andromeda ",
			wantText:    "Gasman / Andromeda Software Development",
			wantSuffix:  "Software Development",
			wantAuthors: []string{"Gasman"}, wantAffiliations: []string{"Andromeda Software Development"},
		},
		{
			name:        "no completion after separator",
			raw:         "Gasman, ",
			wantText:    "Gasman, ",
			wantAuthors: []string{"Gasman"}, wantAffiliations: []string{},
		},
		{
			name:        "no completion after slash",
			raw:         "Gas /",
			wantText:    "Gas /",
			wantAuthors: []string{"Gas"}, wantAffiliations: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := env.parser.Parse(ctx, tt.raw, ParseOptions{Autocomplete: true})
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, parsed.Text)
			assert.Equal(t, tt.wantSuffix, parsed.Suffix)
			assert.Equal(t, tt.wantAuthors, parsed.AuthorNames)
			assert.Equal(t, tt.wantAffiliations, parsed.AffiliationNames)
		})
	}

	t.Run("exact match is not extended", func(t *testing.T) {
		env.group(t, "Andromeda")
		parsed, err := env.parser.Parse(ctx, "Gasman / Andromeda ", ParseOptions{Autocomplete: true})
		require.NoError(t, err)
		assert.Empty(t, parsed.Suffix)
		assert.Equal(t, []string{"Andromeda"}, parsed.AffiliationNames)
	})
}

func TestBylineParser_FromByline_RoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, gasman := env.person(t, "Gasman")
	_, shiru := env.person(t, "Shiru")
	_, hooy := env.group(t, "Hooy-Program")

	byline := &entities.Byline{
		Authors:      []entities.Nick{*gasman, *shiru},
		Affiliations: []entities.Nick{*hooy},
	}

	rebuilt, err := env.parser.FromByline(ctx, byline)
	require.NoError(t, err)
	assert.Equal(t, "Gasman, Shiru / Hooy-Program", rebuilt.Text)
	assert.Equal(t, gasman.ID, rebuilt.Authors[0].Selection.NickID())
	assert.Equal(t, shiru.ID, rebuilt.Authors[1].Selection.NickID())
	assert.Equal(t, hooy.ID, rebuilt.Affiliations[0].Selection.NickID())

	reparsed, err := env.parser.Parse(ctx, rebuilt.Text, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, rebuilt.AuthorNames, reparsed.AuthorNames)
	assert.Equal(t, rebuilt.AffiliationNames, reparsed.AffiliationNames)
	for i := range reparsed.Authors {
		assert.True(t, reparsed.Authors[i].Selection.Equal(rebuilt.Authors[i].Selection))
	}
	assert.True(t, reparsed.Affiliations[0].Selection.Equal(rebuilt.Affiliations[0].Selection))
}
