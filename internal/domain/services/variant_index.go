package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/observability"
)

// SearchOptions configures a variant search.
type SearchOptions struct {
	Exact   bool
	Kind    entities.KindFilter
	Context ScoreContext
	Limit   int // 0 = no limit
}

// VariantMatch is one ranked result of a variant search.
type VariantMatch struct {
	Variant          entities.NickVariant `json:"variant"`
	Nick             entities.Nick        `json:"nick"`
	Releaser         entities.Releaser    `json:"releaser"`
	Score            int                  `json:"score"`
	IsExactMatch     bool                 `json:"is_exact_match"`
	IsPrimaryVariant bool                 `json:"is_primary_variant"`
}

// VariantIndex is a read-only scored lookup over nick variants.
type VariantIndex struct {
	relationalDB ports.RelationalDB
	scorer       *CandidateScorer
	metrics      *observability.Metrics
}

// NewVariantIndex creates a new VariantIndex. metrics may be nil.
func NewVariantIndex(relationalDB ports.RelationalDB, scorer *CandidateScorer, metrics *observability.Metrics) *VariantIndex {
	return &VariantIndex{
		relationalDB: relationalDB,
		scorer:       scorer,
		metrics:      metrics,
	}
}

// Search returns the variants matching query ordered most plausible first:
// by affinity score, then exact matches, then primary variants, then text.
// An empty query matches nothing.
func (x *VariantIndex) Search(ctx context.Context, query string, opts SearchOptions) ([]VariantMatch, error) {
	if strings.TrimSpace(query) == "" {
		return []VariantMatch{}, nil
	}
	x.metrics.RecordSearch(opts.Exact)

	rows, err := x.relationalDB.FindVariants(ctx, ports.VariantQuery{
		Text:  query,
		Exact: opts.Exact,
		Kind:  opts.Kind,
	})
	if err != nil {
		return nil, fmt.Errorf("finding variants: %w", err)
	}
	if len(rows) == 0 {
		return []VariantMatch{}, nil
	}

	candidateIDs := make([]int64, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	for i := range rows {
		if id := rows[i].Releaser.ID; !seen[id] {
			seen[id] = true
			candidateIDs = append(candidateIDs, id)
		}
	}

	scores, err := x.scorer.Score(ctx, candidateIDs, opts.Context)
	if err != nil {
		return nil, fmt.Errorf("scoring candidates: %w", err)
	}

	key := entities.MatchKey(query)
	matches := make([]VariantMatch, len(rows))
	for i := range rows {
		matches[i] = VariantMatch{
			Variant:          rows[i].Variant,
			Nick:             rows[i].Nick,
			Releaser:         rows[i].Releaser,
			Score:            scores[rows[i].Releaser.ID],
			IsExactMatch:     rows[i].Variant.MatchKey == key,
			IsPrimaryVariant: rows[i].IsPrimaryVariant(),
		}
	}
	SortMatches(matches)

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	zerolog.Ctx(ctx).Debug().
		Str("query", query).
		Bool("exact", opts.Exact).
		Str("kind", opts.Kind.String()).
		Int("matches", len(matches)).
		Msg("variant search")

	return matches, nil
}

// SortMatches orders matches by (-score, -exact, -primary, search key, text, id).
func SortMatches(matches []VariantMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := &matches[i], &matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.IsExactMatch != b.IsExactMatch {
			return a.IsExactMatch
		}
		if a.IsPrimaryVariant != b.IsPrimaryVariant {
			return a.IsPrimaryVariant
		}
		if a.Variant.SearchKey != b.Variant.SearchKey {
			return a.Variant.SearchKey < b.Variant.SearchKey
		}
		if a.Variant.Name != b.Variant.Name {
			return a.Variant.Name < b.Variant.Name
		}
		return a.Variant.ID < b.Variant.ID
	})
}

// Autocomplete returns the text that would complete partial to the single
// best prefix match, or "" when partial already names something real or
// nothing matches. Only a suffix is ever returned so the caller keeps its
// own capitalization of what was already typed.
func (x *VariantIndex) Autocomplete(ctx context.Context, partial string, kind entities.KindFilter, sc ScoreContext) (string, error) {
	if strings.TrimSpace(partial) == "" {
		return "", nil
	}

	exact, err := x.Search(ctx, partial, SearchOptions{Exact: true, Kind: kind, Limit: 1})
	if err != nil {
		return "", err
	}
	if len(exact) > 0 {
		return "", nil
	}

	trimmed := strings.TrimLeftFunc(partial, unicode.IsSpace)
	matches, err := x.Search(ctx, trimmed, SearchOptions{Kind: kind, Context: sc, Limit: 1})
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", nil
	}

	name := []rune(matches[0].Variant.Name)
	typed := utf8.RuneCountInString(trimmed)
	if typed >= len(name) {
		return "", nil
	}
	return string(name[typed:]), nil
}
