package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreContext_Kind(t *testing.T) {
	tests := []struct {
		name string
		sc   ScoreContext
		want ContextKind
	}{
		{name: "empty", sc: ScoreContext{}, want: ContextNone},
		{name: "blank names ignored", sc: GroupNamesContext("", "  "), want: ContextNone},
		{name: "group ids", sc: GroupIDsContext(1), want: ContextGroupIDs},
		{name: "group names", sc: GroupNamesContext("Hooy-Program"), want: ContextGroupNames},
		{name: "member names", sc: MemberNamesContext("Gasman"), want: ContextMemberNames},
		{
			name: "ids win over names",
			sc:   ScoreContext{GroupIDs: []int64{1}, GroupNames: []string{"x"}, MemberNames: []string{"y"}},
			want: ContextGroupIDs,
		},
		{
			name: "group names win over member names",
			sc:   ScoreContext{GroupNames: []string{"x"}, MemberNames: []string{"y"}},
			want: ContextGroupNames,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sc.Kind())
		})
	}
}

func TestCandidateScorer_Score(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scorer := NewCandidateScorer(env.db)

	hooy, _ := env.group(t, "Hooy-Program")
	raww, _ := env.group(t, "Raww Arse")
	gasman, _ := env.person(t, "Gasman")
	other, _ := env.person(t, "Gasman2")
	env.member(t, gasman.ID, hooy.ID)
	env.member(t, gasman.ID, raww.ID)
	env.member(t, other.ID, raww.ID)

	candidates := []int64{gasman.ID, other.ID}

	t.Run("no context scores zero", func(t *testing.T) {
		scores, err := scorer.Score(ctx, candidates, ScoreContext{})
		require.NoError(t, err)
		assert.Empty(t, scores)
		assert.Equal(t, 0, env.db.FindVariantsCallCount)
	})

	t.Run("group ids", func(t *testing.T) {
		scores, err := scorer.Score(ctx, candidates, GroupIDsContext(hooy.ID, raww.ID))
		require.NoError(t, err)
		assert.Equal(t, 2, scores[gasman.ID])
		assert.Equal(t, 1, scores[other.ID])
	})

	t.Run("group names", func(t *testing.T) {
		scores, err := scorer.Score(ctx, candidates, GroupNamesContext("hooy-program"))
		require.NoError(t, err)
		assert.Equal(t, 1, scores[gasman.ID])
		assert.Equal(t, 0, scores[other.ID])
	})

	t.Run("group names only match groups", func(t *testing.T) {
		scores, err := scorer.Score(ctx, candidates, GroupNamesContext("Gasman"))
		require.NoError(t, err)
		assert.Empty(t, scores)
	})

	t.Run("member names score groups", func(t *testing.T) {
		scores, err := scorer.Score(ctx, []int64{hooy.ID, raww.ID}, MemberNamesContext("Gasman", "Gasman2"))
		require.NoError(t, err)
		assert.Equal(t, 1, scores[hooy.ID])
		assert.Equal(t, 2, scores[raww.ID])
	})

	t.Run("unknown context names", func(t *testing.T) {
		scores, err := scorer.Score(ctx, candidates, GroupNamesContext("Nobody"))
		require.NoError(t, err)
		assert.Empty(t, scores)
	})
}
