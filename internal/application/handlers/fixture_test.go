package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/mocks"
	"github.com/ersonp/scenecredits/internal/domain/services"
)

func seed(t *testing.T, db *mocks.RelationalDB, name string, kind entities.Kind, groups ...*entities.Releaser) (*entities.Releaser, *entities.Nick) {
	t.Helper()
	ctx := context.Background()
	svc := services.NewReleaserService(db)

	r, n, err := svc.CreateReleaser(ctx, name, kind, "")
	require.NoError(t, err)
	for _, g := range groups {
		_, err := svc.AddMembership(ctx, r.ID, g.ID, true)
		require.NoError(t, err)
	}
	return r, n
}

func defaultOpts() ResolutionOptions {
	return ResolutionOptions{StalePolicy: services.StaleSubstitute, IDLookup: true}
}
