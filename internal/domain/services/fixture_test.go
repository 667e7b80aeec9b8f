package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/mocks"
)

type testEnv struct {
	db        *mocks.RelationalDB
	releasers *ReleaserService
	index     *VariantIndex
	resolver  *Resolver
	parser    *BylineParser
	committer *SelectionCommitter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := mocks.NewRelationalDB()
	index := NewVariantIndex(db, NewCandidateScorer(db), nil)
	resolver := NewResolver(db, index, nil)
	return &testEnv{
		db:        db,
		releasers: NewReleaserService(db),
		index:     index,
		resolver:  resolver,
		parser:    NewBylineParser(index, resolver),
		committer: NewSelectionCommitter(db, nil),
	}
}

func (e *testEnv) person(t *testing.T, name string) (*entities.Releaser, *entities.Nick) {
	t.Helper()
	r, n, err := e.releasers.CreateReleaser(context.Background(), name, entities.KindPerson, "")
	require.NoError(t, err)
	return r, n
}

func (e *testEnv) group(t *testing.T, name string) (*entities.Releaser, *entities.Nick) {
	t.Helper()
	r, n, err := e.releasers.CreateReleaser(context.Background(), name, entities.KindGroup, "")
	require.NoError(t, err)
	return r, n
}

func (e *testEnv) member(t *testing.T, memberID, groupID int64) {
	t.Helper()
	_, err := e.releasers.AddMembership(context.Background(), memberID, groupID, true)
	require.NoError(t, err)
}
