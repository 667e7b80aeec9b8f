package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/domain/services"
	"github.com/ersonp/scenecredits/internal/observability"
)

// BylineHandler parses bylines and submits production credit forms.
type BylineHandler struct {
	relationalDB ports.RelationalDB
	metrics      *observability.Metrics
	svc          *serviceSet
	opts         ResolutionOptions
}

// NewBylineHandler creates a new byline handler.
func NewBylineHandler(relationalDB ports.RelationalDB, metrics *observability.Metrics, opts ResolutionOptions) *BylineHandler {
	return &BylineHandler{
		relationalDB: relationalDB,
		metrics:      metrics,
		svc:          newServiceSet(relationalDB, metrics),
		opts:         opts,
	}
}

// HandleParse parses a byline without writing anything. With autocomplete
// set, the last token is completed when the index can do so unambiguously.
func (h *BylineHandler) HandleParse(ctx context.Context, raw string, autocomplete bool) (*services.ParsedByline, error) {
	parsed, err := h.svc.parser.Parse(ctx, raw, services.ParseOptions{
		Autocomplete: autocomplete,
		IDLookup:     h.opts.IDLookup,
		Limit:        h.opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing byline: %w", err)
	}
	return parsed, nil
}

// CreditRequest is a submitted production credit form.
type CreditRequest struct {
	// ProductionID updates an existing production when set.
	ProductionID string
	Title        string
	Byline       string
	// AuthorChoices and AffiliationChoices hold posted suggestion keys by
	// token position. An empty key keeps the resolver's own selection.
	AuthorChoices      []string
	AffiliationChoices []string
	// AllowCreate permits selections that create new releasers.
	AllowCreate bool
}

// FieldError is a validation message attached to one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CreditForm is the state of a credit form after submission. Saved is false
// when validation failed, in which case Errors says why and nothing was written.
type CreditForm struct {
	Title      string                 `json:"title"`
	Parsed     *services.ParsedByline `json:"byline"`
	Fields     []*services.NickField  `json:"-"`
	Errors     []FieldError           `json:"errors,omitempty"`
	Production *entities.Production   `json:"production,omitempty"`
	Saved      bool                   `json:"saved"`
}

// HandleCredit validates a credit form and, when valid, commits every
// selection and saves the production and its byline in one transaction.
func (h *BylineHandler) HandleCredit(ctx context.Context, req CreditRequest) (*CreditForm, error) {
	parsed, err := h.HandleParse(ctx, req.Byline, false)
	if err != nil {
		return nil, err
	}

	form := &CreditForm{
		Title:  strings.TrimSpace(req.Title),
		Parsed: parsed,
	}

	authors := h.fields(ctx, form, "author", parsed.Authors, req.AuthorChoices)
	affiliations := h.fields(ctx, form, "affiliation", parsed.Affiliations, req.AffiliationChoices)

	h.validate(form, authors, affiliations, req.AllowCreate)
	if len(form.Errors) > 0 {
		return form, nil
	}

	err = h.commit(ctx, form, req.ProductionID, authors, affiliations)
	var resErr *entities.ResolutionError
	switch {
	case errors.As(err, &resErr):
		form.Errors = append(form.Errors, FieldError{Field: fieldFor(form.Fields, resErr.NickID), Message: resErr.Error()})
		return form, nil
	case err != nil:
		return nil, err
	}

	form.Parsed.Text = form.Parsed.Normalized()
	form.Saved = true
	return form, nil
}

func (h *BylineHandler) fields(ctx context.Context, form *CreditForm, role string, resolvers []*services.NickResolver, choices []string) []*services.NickField {
	out := make([]*services.NickField, 0, len(resolvers))
	for i, r := range resolvers {
		f := services.NewNickField(fmt.Sprintf("%s[%d]", role, i), r, h.opts.StalePolicy, h.metrics)
		if i < len(choices) {
			if err := f.Choose(ctx, choices[i]); err != nil {
				form.Errors = append(form.Errors, FieldError{Field: f.Name, Message: err.Error()})
			}
		}
		out = append(out, f)
		form.Fields = append(form.Fields, f)
	}
	return out
}

func (h *BylineHandler) validate(form *CreditForm, authors, affiliations []*services.NickField, allowCreate bool) {
	if form.Title == "" {
		form.Errors = append(form.Errors, FieldError{Field: "title", Message: "title is required"})
	}
	if len(authors) == 0 {
		form.Errors = append(form.Errors, FieldError{Field: "byline", Message: "at least one author is required"})
	}

	check := func(f *services.NickField) {
		sel := f.Selection()
		switch {
		case !f.Valid():
			form.Errors = append(form.Errors, FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%q is ambiguous, choose one of %d suggestions", f.Resolver.SearchTerm, len(f.Resolver.Suggestions)),
			})
		case sel.IsPending() && !allowCreate:
			form.Errors = append(form.Errors, FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%q would create a new %s", sel.Name(), sel.Kind()),
			})
		}
	}
	for _, f := range authors {
		check(f)
	}
	for _, f := range affiliations {
		check(f)
	}
}

// commit runs the write phase. On failure the fields get their
// pre-commit selections back, since the transaction discarded whatever
// the commit created.
func (h *BylineHandler) commit(ctx context.Context, form *CreditForm, productionID string, authors, affiliations []*services.NickField) error {
	before := make([]entities.Selection, len(form.Fields))
	for i, f := range form.Fields {
		before[i] = f.Selection()
	}

	err := h.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		committer := services.NewSelectionCommitter(tx, h.metrics)
		// Identical pending names in one byline create one releaser.
		created := make(map[entities.Selection]entities.Selection)

		commitAll := func(fields []*services.NickField) ([]int64, error) {
			ids := make([]int64, 0, len(fields))
			for _, f := range fields {
				sel := f.Selection()
				if done, ok := created[sel]; ok && sel.IsPending() {
					f.Resolver.Selection = done
					ids = append(ids, done.NickID())
					continue
				}
				committed, err := f.Commit(ctx, committer)
				if err != nil {
					return nil, err
				}
				if sel.IsPending() {
					created[sel] = committed
				}
				ids = append(ids, committed.NickID())
			}
			return ids, nil
		}

		authorIDs, err := commitAll(authors)
		if err != nil {
			return err
		}
		affiliationIDs, err := commitAll(affiliations)
		if err != nil {
			return err
		}

		production := &entities.Production{ID: productionID, Title: form.Title}
		if productionID != "" {
			existing, err := tx.FindProduction(ctx, productionID)
			if err != nil {
				return fmt.Errorf("finding production: %w", err)
			}
			if existing == nil {
				return fmt.Errorf("production %s: %w", productionID, entities.ErrNotFound)
			}
			production.CreatedAt = existing.CreatedAt
		}
		if err := tx.SaveProduction(ctx, production); err != nil {
			return fmt.Errorf("saving production: %w", err)
		}
		if err := tx.SaveByline(ctx, production.ID, authorIDs, affiliationIDs); err != nil {
			return fmt.Errorf("saving byline: %w", err)
		}

		logger := observability.WithProductionContext(*zerolog.Ctx(ctx), production.ID, production.Title)
		logger.Info().
			Int("authors", len(authorIDs)).
			Int("affiliations", len(affiliationIDs)).
			Msg("production credited")

		form.Production = production
		return nil
	})
	if err != nil {
		for i, f := range form.Fields {
			f.Resolver.Selection = before[i]
		}
		form.Production = nil
	}
	return err
}

// fieldFor names the field whose selection refers to nickID.
func fieldFor(fields []*services.NickField, nickID int64) string {
	for _, f := range fields {
		if sel := f.Selection(); sel.IsExisting() && sel.NickID() == nickID {
			return f.Name
		}
	}
	return "byline"
}

// ProductionView is a saved production with its byline rebuilt for editing.
type ProductionView struct {
	Production *entities.Production   `json:"production"`
	Byline     *services.ParsedByline `json:"byline"`
}

// HandleShow loads a production and rebuilds its byline with every token
// preselected to the credited nick.
func (h *BylineHandler) HandleShow(ctx context.Context, productionID string) (*ProductionView, error) {
	production, err := h.relationalDB.FindProduction(ctx, productionID)
	if err != nil {
		return nil, fmt.Errorf("finding production: %w", err)
	}
	if production == nil {
		return nil, fmt.Errorf("production %s: %w", productionID, entities.ErrNotFound)
	}

	byline, err := h.relationalDB.FindByline(ctx, productionID)
	if err != nil {
		return nil, fmt.Errorf("finding byline: %w", err)
	}

	parsed, err := h.svc.parser.FromByline(ctx, byline)
	if err != nil {
		return nil, fmt.Errorf("rebuilding byline: %w", err)
	}

	return &ProductionView{
		Production: production,
		Byline:     parsed,
	}, nil
}
