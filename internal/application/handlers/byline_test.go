package handlers

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/mocks"
	"github.com/ersonp/scenecredits/internal/domain/services"
	"github.com/ersonp/scenecredits/internal/observability"
)

func TestBylineHandler_HandleParse(t *testing.T) {
	db := mocks.NewRelationalDB()
	raww, _ := seed(t, db, "Raww Arse", entities.KindGroup)
	seed(t, db, "Gasman", entities.KindPerson, raww)

	handler := NewBylineHandler(db, nil, defaultOpts())

	parsed, err := handler.HandleParse(context.Background(), "Gasman / Raw", true)
	require.NoError(t, err)
	assert.Equal(t, "Gasman / Raww Arse", parsed.Text)
	assert.Equal(t, "w Arse", parsed.Suffix)
	assert.True(t, parsed.Resolved())
}

func TestBylineHandler_HandleCredit_Saves(t *testing.T) {
	db := mocks.NewRelationalDB()
	raww, rawwNick := seed(t, db, "Raww Arse", entities.KindGroup)
	_, gasman := seed(t, db, "Gasman", entities.KindPerson, raww)

	handler := NewBylineHandler(db, nil, defaultOpts())
	ctx := context.Background()

	form, err := handler.HandleCredit(ctx, CreditRequest{
		Title:  "Pod",
		Byline: "Gasman / Raww Arse",
	})
	require.NoError(t, err)
	require.True(t, form.Saved, "errors: %v", form.Errors)
	require.NotNil(t, form.Production)
	assert.NotEmpty(t, form.Production.ID)
	assert.Equal(t, "Pod", form.Production.Title)

	byline, err := db.FindByline(ctx, form.Production.ID)
	require.NoError(t, err)
	require.Len(t, byline.Authors, 1)
	require.Len(t, byline.Affiliations, 1)
	assert.Equal(t, gasman.ID, byline.Authors[0].ID)
	assert.Equal(t, rawwNick.ID, byline.Affiliations[0].ID)
}

func TestBylineHandler_HandleCredit_Validation(t *testing.T) {
	db := mocks.NewRelationalDB()
	seed(t, db, "Gasman", entities.KindPerson)
	seed(t, db, "Gasman", entities.KindPerson)

	handler := NewBylineHandler(db, nil, defaultOpts())
	ctx := context.Background()

	tests := []struct {
		name      string
		req       CreditRequest
		wantField string
	}{
		{name: "missing title", req: CreditRequest{Byline: "Nobody", AuthorChoices: []string{services.SentinelKey(entities.KindPerson, "Nobody")}, AllowCreate: true}, wantField: "title"},
		{name: "empty byline", req: CreditRequest{Title: "Pod"}, wantField: "byline"},
		{name: "ambiguous author", req: CreditRequest{Title: "Pod", Byline: "Gasman"}, wantField: "author[0]"},
		{name: "unknown author without choice", req: CreditRequest{Title: "Pod", Byline: "Nobody", AllowCreate: true}, wantField: "author[0]"},
		{name: "creation not allowed", req: CreditRequest{Title: "Pod", Byline: "Nobody", AuthorChoices: []string{services.SentinelKey(entities.KindPerson, "Nobody")}}, wantField: "author[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			releasers := len(db.Releasers)

			form, err := handler.HandleCredit(ctx, tt.req)
			require.NoError(t, err)
			assert.False(t, form.Saved)
			require.NotEmpty(t, form.Errors)
			assert.Equal(t, tt.wantField, form.Errors[0].Field)

			assert.Len(t, db.Releasers, releasers)
			assert.Empty(t, db.Productions)
		})
	}
}

func TestBylineHandler_HandleCredit_ChoiceResolvesAmbiguity(t *testing.T) {
	db := mocks.NewRelationalDB()
	seed(t, db, "Gasman", entities.KindPerson)
	_, second := seed(t, db, "Gasman", entities.KindPerson)

	handler := NewBylineHandler(db, nil, defaultOpts())

	form, err := handler.HandleCredit(context.Background(), CreditRequest{
		Title:         "Pod",
		Byline:        "Gasman",
		AuthorChoices: []string{strconv.FormatInt(second.ID, 10)},
	})
	require.NoError(t, err)
	require.True(t, form.Saved, "errors: %v", form.Errors)
	assert.Equal(t, second.ID, form.Fields[0].Selection().NickID())
}

func TestBylineHandler_HandleCredit_CreatesReleasers(t *testing.T) {
	db := mocks.NewRelationalDB()
	metrics := observability.NewMetrics("test")
	handler := NewBylineHandler(db, metrics, defaultOpts())
	ctx := context.Background()

	form, err := handler.HandleCredit(ctx, CreditRequest{
		Title:              "Pod",
		Byline:             "Newbie, Newbie / Newgroup",
		AuthorChoices:      []string{services.SentinelKey(entities.KindPerson, "Newbie"), services.SentinelKey(entities.KindPerson, "Newbie")},
		AffiliationChoices: []string{services.SentinelKey(entities.KindGroup, "Newgroup")},
		AllowCreate:        true,
	})
	require.NoError(t, err)
	require.True(t, form.Saved, "errors: %v", form.Errors)

	// The repeated name creates one person.
	assert.Len(t, db.Releasers, 2)
	assert.Equal(t, 2, db.CreateReleaserCallCount)

	byline, err := db.FindByline(ctx, form.Production.ID)
	require.NoError(t, err)
	require.Len(t, byline.Authors, 2)
	assert.Equal(t, byline.Authors[0].ID, byline.Authors[1].ID)
	require.Len(t, byline.Affiliations, 1)
	assert.Equal(t, "Newgroup", byline.Affiliations[0].Name)

	for _, f := range form.Fields {
		assert.True(t, f.Selection().IsExisting(), f.Name)
	}
}

func TestBylineHandler_HandleCredit_StaleChoice(t *testing.T) {
	ctx := context.Background()

	t.Run("substitute keeps best guess", func(t *testing.T) {
		db := mocks.NewRelationalDB()
		_, gasman := seed(t, db, "Gasman", entities.KindPerson)
		handler := NewBylineHandler(db, nil, defaultOpts())

		form, err := handler.HandleCredit(ctx, CreditRequest{
			Title:         "Pod",
			Byline:        "Gasman",
			AuthorChoices: []string{"99999"},
		})
		require.NoError(t, err)
		require.True(t, form.Saved)
		assert.Equal(t, gasman.ID, form.Fields[0].Selection().NickID())
	})

	t.Run("reject fails the form", func(t *testing.T) {
		db := mocks.NewRelationalDB()
		seed(t, db, "Gasman", entities.KindPerson)
		opts := defaultOpts()
		opts.StalePolicy = services.StaleReject
		handler := NewBylineHandler(db, nil, opts)

		form, err := handler.HandleCredit(ctx, CreditRequest{
			Title:         "Pod",
			Byline:        "Gasman",
			AuthorChoices: []string{"99999"},
		})
		require.NoError(t, err)
		assert.False(t, form.Saved)
		require.Len(t, form.Errors, 1)
		assert.Equal(t, "author[0]", form.Errors[0].Field)
		assert.Contains(t, form.Errors[0].Message, "not one of the current suggestions")
	})

	t.Run("named sentinel for an edited term", func(t *testing.T) {
		db := mocks.NewRelationalDB()
		opts := defaultOpts()
		opts.StalePolicy = services.StaleReject
		handler := NewBylineHandler(db, nil, opts)

		form, err := handler.HandleCredit(ctx, CreditRequest{
			Title:         "Pod",
			Byline:        "Newbie",
			AuthorChoices: []string{services.KeyNewPerson + ":Oldname"},
			AllowCreate:   true,
		})
		require.NoError(t, err)
		assert.False(t, form.Saved)
		assert.Empty(t, db.Releasers)
	})
}

func TestBylineHandler_HandleCredit_CreateChoiceFollowsText(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	opts := defaultOpts()
	opts.StalePolicy = services.StaleReject
	handler := NewBylineHandler(db, nil, opts)

	// The choice was rendered for "Alpha"; a new author now sits in front of it.
	form, err := handler.HandleCredit(ctx, CreditRequest{
		Title:         "Pod",
		Byline:        "Beta, Alpha",
		AuthorChoices: []string{services.SentinelKey(entities.KindPerson, "Alpha")},
		AllowCreate:   true,
	})
	require.NoError(t, err)
	assert.False(t, form.Saved)
	require.NotEmpty(t, form.Errors)
	assert.Equal(t, "author[0]", form.Errors[0].Field)
	assert.Empty(t, db.Releasers)

	_, err = handler.HandleCredit(ctx, CreditRequest{
		Title:         "Pod",
		Byline:        "Beta",
		AuthorChoices: []string{services.KeyNewPerson},
		AllowCreate:   true,
	})
	require.NoError(t, err)
	assert.Empty(t, db.Releasers, "a bare create key names no text and is refused")
}

func TestBylineHandler_HandleCredit_RollsBack(t *testing.T) {
	db := mocks.NewRelationalDB()
	seed(t, db, "Gasman", entities.KindPerson)
	db.SaveBylineErr = errors.New("disk full")

	handler := NewBylineHandler(db, nil, defaultOpts())

	releasers := len(db.Releasers)
	form, err := handler.HandleCredit(context.Background(), CreditRequest{
		Title:              "Pod",
		Byline:             "Gasman / Newgroup",
		AffiliationChoices: []string{services.SentinelKey(entities.KindGroup, "Newgroup")},
		AllowCreate:        true,
	})
	require.Error(t, err)
	assert.Nil(t, form)
	assert.Contains(t, err.Error(), "disk full")

	assert.Len(t, db.Releasers, releasers)
	assert.Empty(t, db.Productions)
	assert.Equal(t, 1, db.RollbackCount)
}

func TestBylineHandler_HandleCredit_UpdatesProduction(t *testing.T) {
	db := mocks.NewRelationalDB()
	seed(t, db, "Gasman", entities.KindPerson)
	seed(t, db, "Gargaj", entities.KindPerson)

	handler := NewBylineHandler(db, nil, defaultOpts())
	ctx := context.Background()

	first, err := handler.HandleCredit(ctx, CreditRequest{Title: "Pod", Byline: "Gasman"})
	require.NoError(t, err)
	require.True(t, first.Saved)

	second, err := handler.HandleCredit(ctx, CreditRequest{
		ProductionID: first.Production.ID,
		Title:        "Pod (final)",
		Byline:       "Gargaj",
	})
	require.NoError(t, err)
	require.True(t, second.Saved)
	assert.Equal(t, first.Production.ID, second.Production.ID)
	assert.Len(t, db.Productions, 1)

	byline, err := db.FindByline(ctx, first.Production.ID)
	require.NoError(t, err)
	require.Len(t, byline.Authors, 1)
	assert.Equal(t, "Gargaj", byline.Authors[0].Name)

	_, err = handler.HandleCredit(ctx, CreditRequest{ProductionID: "missing", Title: "x", Byline: "Gasman"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestBylineHandler_HandleShow(t *testing.T) {
	db := mocks.NewRelationalDB()
	raww, _ := seed(t, db, "Raww Arse", entities.KindGroup)
	seed(t, db, "Gasman", entities.KindPerson, raww)
	seed(t, db, "Hoffman", entities.KindPerson, raww)

	handler := NewBylineHandler(db, nil, defaultOpts())
	ctx := context.Background()

	form, err := handler.HandleCredit(ctx, CreditRequest{Title: "Pod", Byline: "Gasman+Hoffman/Raww Arse"})
	require.NoError(t, err)
	require.True(t, form.Saved, "errors: %v", form.Errors)
	assert.Equal(t, "Gasman, Hoffman / Raww Arse", form.Parsed.Text)

	view, err := handler.HandleShow(ctx, form.Production.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pod", view.Production.Title)
	assert.Equal(t, "Gasman, Hoffman / Raww Arse", view.Byline.Text)
	assert.True(t, view.Byline.Resolved())

	_, err = handler.HandleShow(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
