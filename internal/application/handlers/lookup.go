package handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/domain/services"
	"github.com/ersonp/scenecredits/internal/observability"
)

// LookupHandler handles read-only name lookups.
type LookupHandler struct {
	svc  *serviceSet
	opts ResolutionOptions
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(relationalDB ports.RelationalDB, metrics *observability.Metrics, opts ResolutionOptions) *LookupHandler {
	return &LookupHandler{
		svc:  newServiceSet(relationalDB, metrics),
		opts: opts,
	}
}

// SearchResult contains the result of a variant search.
type SearchResult struct {
	Query   string                  `json:"query"`
	Matches []services.VariantMatch `json:"matches"`
}

// HandleSearch lists variants matching query, best first.
func (h *LookupHandler) HandleSearch(ctx context.Context, query string, kind entities.KindFilter, exact bool, limit int) (*SearchResult, error) {
	matches, err := h.svc.index.Search(ctx, query, services.SearchOptions{
		Exact: exact,
		Kind:  kind,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("searching variants: %w", err)
	}

	return &SearchResult{
		Query:   query,
		Matches: matches,
	}, nil
}

// CompleteResult contains the result of autocompleting a partial name.
type CompleteResult struct {
	Partial   string `json:"partial"`
	Suffix    string `json:"suffix"`
	Completed string `json:"completed"`
}

// HandleComplete returns the text that would complete partial.
func (h *LookupHandler) HandleComplete(ctx context.Context, partial string, kind entities.KindFilter) (*CompleteResult, error) {
	suffix, err := h.svc.index.Autocomplete(ctx, partial, kind, services.ScoreContext{})
	if err != nil {
		return nil, fmt.Errorf("autocompleting: %w", err)
	}

	return &CompleteResult{
		Partial:   partial,
		Suffix:    suffix,
		Completed: partial + suffix,
	}, nil
}

// HandleResolve resolves a single name. Group names, when given, rank
// candidates who are members of those groups first.
func (h *LookupHandler) HandleResolve(ctx context.Context, term string, kind entities.KindFilter, groups []string) (*services.NickResolver, error) {
	logger := observability.WithLookupContext(*zerolog.Ctx(ctx), "name", term)
	ctx = logger.WithContext(ctx)

	return h.svc.resolver.Resolve(ctx, term, services.ResolverOptions{
		Kind:     kind,
		Context:  services.GroupNamesContext(groups...),
		IDLookup: h.opts.IDLookup,
		Limit:    h.opts.Limit,
	})
}
