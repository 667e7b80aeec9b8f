package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/observability"
)

func TestParseStalePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    StalePolicy
		wantErr bool
	}{
		{in: "", want: StaleSubstitute},
		{in: "substitute", want: StaleSubstitute},
		{in: "reject", want: StaleReject},
		{in: "ignore", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStalePolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNickField_Choose(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, first := env.person(t, "Shiru")
	_, second := env.person(t, "Shiru")
	_, unrelated := env.person(t, "Gasman")

	resolve := func(t *testing.T, kind entities.KindFilter) *NickResolver {
		t.Helper()
		r, err := env.resolver.Resolve(ctx, "Shiru", ResolverOptions{Kind: kind})
		require.NoError(t, err)
		require.False(t, r.HasSelection())
		return r
	}

	tests := []struct {
		name    string
		kind    entities.KindFilter
		key     string
		want    entities.Selection
		isStale bool
	}{
		{name: "empty key keeps selection", key: "", want: entities.Selection{}},
		{name: "listed nick", key: fmt.Sprint(second.ID), want: entities.ExistingNick(second)},
		{name: "new person", key: SentinelKey(entities.KindPerson, "Shiru"), want: entities.Pending("Shiru", entities.KindPerson)},
		{name: "new group with matching name", key: "new_group:Shiru", want: entities.Pending("Shiru", entities.KindGroup)},
		{name: "sentinel for old text", key: "new_person:Shir", isStale: true},
		{name: "sentinel excluded by kind", kind: entities.PersonsOnly, key: "new_group:Shiru", isStale: true},
		{name: "bare sentinel key", key: KeyNewPerson, isStale: true},
		{name: "unlisted nick", key: fmt.Sprint(unrelated.ID), isStale: true},
		{name: "garbage", key: "drop table", isStale: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetrics("test")
			field := NewNickField("author 1", resolve(t, tt.kind), StaleSubstitute, metrics)

			require.NoError(t, field.Choose(ctx, tt.key))
			if tt.isStale {
				// best guess for a tie is no selection
				assert.False(t, field.Valid())
				return
			}
			assert.True(t, field.Selection().Equal(tt.want), "got %s", field.Selection())
		})
	}

	t.Run("reject policy", func(t *testing.T) {
		field := NewNickField("author 1", resolve(t, entities.AnyKind), StaleReject, nil)

		err := field.Choose(ctx, fmt.Sprint(unrelated.ID))
		require.ErrorIs(t, err, entities.ErrStaleSelection)
		assert.Contains(t, err.Error(), "author 1")

		require.NoError(t, field.Choose(ctx, fmt.Sprint(first.ID)))
		assert.Equal(t, first.ID, field.Selection().NickID())
	})

	t.Run("substitute keeps best guess", func(t *testing.T) {
		r, err := env.resolver.Resolve(ctx, "Gasman", ResolverOptions{})
		require.NoError(t, err)
		field := NewNickField("author", r, "", nil)
		assert.Equal(t, StaleSubstitute, field.Policy)

		require.NoError(t, field.Choose(ctx, fmt.Sprint(first.ID)))
		assert.Equal(t, unrelated.ID, field.Selection().NickID())
		assert.False(t, field.Changed(entities.ExistingNick(unrelated)))
	})
}

func TestNickField_Commit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	r, err := env.resolver.Resolve(ctx, "Newcomer", ResolverOptions{})
	require.NoError(t, err)
	field := NewNickField("author", r, StaleSubstitute, nil)
	require.NoError(t, field.Choose(ctx, SentinelKey(entities.KindPerson, "Newcomer")))

	committed, err := field.Commit(ctx, env.committer)
	require.NoError(t, err)
	assert.True(t, committed.IsExisting())
	assert.True(t, field.Selection().IsExisting())

	_, err = field.Commit(ctx, env.committer)
	require.NoError(t, err)
	assert.Equal(t, 1, env.db.CreateReleaserCallCount)
}
