package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/mocks"
)

func TestReleaserHandler_Lifecycle(t *testing.T) {
	db := mocks.NewRelationalDB()
	handler := NewReleaserHandler(db)
	ctx := context.Background()

	group, err := handler.HandleAdd(ctx, "Hooy-Program", entities.KindGroup, "RU")
	require.NoError(t, err)
	assert.True(t, group.Releaser.IsGroup)
	assert.Equal(t, "ru", group.Releaser.CountryCode)

	person, err := handler.HandleAdd(ctx, "Gasman", entities.KindPerson, "gb")
	require.NoError(t, err)
	require.NotNil(t, person.PrimaryNick())

	nick, err := handler.HandleAddNick(ctx, person.Releaser.ID, "Matt Westcott", "MW", "")
	require.NoError(t, err)

	_, err = handler.HandleAddAlias(ctx, nick.ID, "Matthew Westcott")
	require.NoError(t, err)

	_, err = handler.HandleAddMembership(ctx, person.Releaser.ID, group.Releaser.ID, true)
	require.NoError(t, err)

	require.NoError(t, handler.HandleRename(ctx, person.Releaser.ID, "Gas Man"))

	detail, err := handler.HandleShow(ctx, person.Releaser.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gas Man", detail.Releaser.Name)
	assert.Equal(t, "Gas Man", detail.PrimaryNick().Name)
	assert.Len(t, detail.Nicks, 2)
	assert.Len(t, detail.Variants[nick.ID], 3)
	require.Len(t, detail.Groups, 1)
	assert.Equal(t, "Hooy-Program", detail.Groups[0].Name)

	require.NoError(t, handler.HandleRenameNick(ctx, nick.ID, "M. Westcott"))

	list, err := handler.HandleList(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Releasers, 2)

	require.NoError(t, handler.HandleDelete(ctx, person.Releaser.ID))
	_, err = handler.HandleShow(ctx, person.Releaser.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestReleaserHandler_Errors(t *testing.T) {
	db := mocks.NewRelationalDB()
	handler := NewReleaserHandler(db)
	ctx := context.Background()

	_, err := handler.HandleAdd(ctx, "  ", entities.KindPerson, "")
	assert.ErrorIs(t, err, entities.ErrInvalidName)

	person, err := handler.HandleAdd(ctx, "Gasman", entities.KindPerson, "")
	require.NoError(t, err)
	other, err := handler.HandleAdd(ctx, "Hoffman", entities.KindPerson, "")
	require.NoError(t, err)

	_, err = handler.HandleAddMembership(ctx, person.Releaser.ID, other.Releaser.ID, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a group")

	_, err = handler.HandleAddNick(ctx, 9999, "Ghost", "", "")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestReleaserHandler_HandleExport(t *testing.T) {
	db := mocks.NewRelationalDB()
	handler := NewReleaserHandler(db)
	ctx := context.Background()

	group, err := handler.HandleAdd(ctx, "Raww Arse", entities.KindGroup, "")
	require.NoError(t, err)
	person, err := handler.HandleAdd(ctx, "Gasman", entities.KindPerson, "gb")
	require.NoError(t, err)
	_, err = handler.HandleAddAlias(ctx, person.PrimaryNick().ID, "GASMAN")
	require.NoError(t, err)
	_, err = handler.HandleAddNick(ctx, person.Releaser.ID, "Matt Westcott", "", "")
	require.NoError(t, err)
	_, err = handler.HandleAddMembership(ctx, person.Releaser.ID, group.Releaser.ID, true)
	require.NoError(t, err)

	rows, err := handler.HandleExport(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Gasman", rows[0].Name)
	assert.Equal(t, "person", rows[0].Kind)
	assert.Equal(t, "gb", rows[0].Country)
	assert.Equal(t, []string{"Matt Westcott"}, rows[0].Aliases)
	assert.Equal(t, []string{"Raww Arse"}, rows[0].Groups)

	assert.Equal(t, "Raww Arse", rows[1].Name)
	assert.Equal(t, "group", rows[1].Kind)
	assert.Empty(t, rows[1].Aliases)
}
