package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
)

// ParseOptions configures BylineParser.Parse.
type ParseOptions struct {
	// Prior selections, matched to tokens by position.
	AuthorSelections      []entities.Selection
	AffiliationSelections []entities.Selection
	Autocomplete          bool
	IDLookup              bool
	Limit                 int
}

// ParsedByline holds one resolver per author and affiliation token.
type ParsedByline struct {
	Text             string          `json:"text"`
	AuthorNames      []string        `json:"author_names"`
	AffiliationNames []string        `json:"affiliation_names"`
	Authors          []*NickResolver `json:"authors"`
	Affiliations     []*NickResolver `json:"affiliations"`
	// Suffix is the text autocomplete appended to Text, if any.
	Suffix string `json:"suffix,omitempty"`
}

// Normalized renders the tokens back into canonical byline form.
func (p *ParsedByline) Normalized() string {
	return FormatByline(p.AuthorNames, p.AffiliationNames)
}

// Resolved reports whether every token has a selection.
func (p *ParsedByline) Resolved() bool {
	for _, r := range p.Authors {
		if !r.HasSelection() {
			return false
		}
	}
	for _, r := range p.Affiliations {
		if !r.HasSelection() {
			return false
		}
	}
	return true
}

// BylineParser turns byline text into resolvable name tokens.
type BylineParser struct {
	index    *VariantIndex
	resolver *Resolver
}

// NewBylineParser creates a new BylineParser.
func NewBylineParser(index *VariantIndex, resolver *Resolver) *BylineParser {
	return &BylineParser{index: index, resolver: resolver}
}

// Tokenize splits raw into author and affiliation names, keeping tokens
// with embedded punctuation whole when they name a known releaser.
func (p *BylineParser) Tokenize(ctx context.Context, raw string) (authors, affiliations []string, err error) {
	authorSeg, affiliationSeg := SplitByline(raw)

	authors, err = RevetTokens(TokenizeSegment(authorSeg), p.existsAs(ctx, entities.PersonsOnly))
	if err != nil {
		return nil, nil, fmt.Errorf("tokenizing authors: %w", err)
	}
	affiliations, err = RevetTokens(TokenizeSegment(affiliationSeg), p.existsAs(ctx, entities.GroupsOnly))
	if err != nil {
		return nil, nil, fmt.Errorf("tokenizing affiliations: %w", err)
	}
	return authors, affiliations, nil
}

func (p *BylineParser) existsAs(ctx context.Context, kind entities.KindFilter) func(string) (bool, error) {
	return func(token string) (bool, error) {
		matches, err := p.index.Search(ctx, token, SearchOptions{Exact: true, Kind: kind, Limit: 1})
		if err != nil {
			return false, err
		}
		return len(matches) > 0, nil
	}
}

// Parse tokenizes raw and resolves every token. Authors are scored against
// the affiliation names and affiliations against the author names.
func (p *BylineParser) Parse(ctx context.Context, raw string, opts ParseOptions) (*ParsedByline, error) {
	authors, affiliations, err := p.Tokenize(ctx, raw)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedByline{
		Text:             raw,
		AuthorNames:      authors,
		AffiliationNames: affiliations,
	}

	if opts.Autocomplete && !EndsWithSeparator(raw) {
		if err := p.autocomplete(ctx, parsed, raw); err != nil {
			return nil, err
		}
	}

	parsed.Authors = make([]*NickResolver, 0, len(parsed.AuthorNames))
	for i, name := range parsed.AuthorNames {
		r, err := p.resolver.Resolve(ctx, name, ResolverOptions{
			Kind:     entities.AnyKind,
			Context:  GroupNamesContext(parsed.AffiliationNames...),
			Prior:    priorAt(opts.AuthorSelections, i),
			IDLookup: opts.IDLookup,
			Limit:    opts.Limit,
		})
		if err != nil {
			return nil, fmt.Errorf("resolving author %q: %w", name, err)
		}
		parsed.Authors = append(parsed.Authors, r)
	}

	parsed.Affiliations = make([]*NickResolver, 0, len(parsed.AffiliationNames))
	for i, name := range parsed.AffiliationNames {
		r, err := p.resolver.Resolve(ctx, name, ResolverOptions{
			Kind:     entities.GroupsOnly,
			Context:  MemberNamesContext(parsed.AuthorNames...),
			Prior:    priorAt(opts.AffiliationSelections, i),
			IDLookup: opts.IDLookup,
			Limit:    opts.Limit,
		})
		if err != nil {
			return nil, fmt.Errorf("resolving affiliation %q: %w", name, err)
		}
		parsed.Affiliations = append(parsed.Affiliations, r)
	}

	zerolog.Ctx(ctx).Debug().
		Str("byline", raw).
		Strs("authors", parsed.AuthorNames).
		Strs("affiliations", parsed.AffiliationNames).
		Bool("resolved", parsed.Resolved()).
		Msg("parsed byline")

	return parsed, nil
}

// autocomplete completes the last token of the byline in place.
func (p *BylineParser) autocomplete(ctx context.Context, parsed *ParsedByline, raw string) error {
	trailing := raw[len(strings.TrimRightFunc(raw, unicode.IsSpace)):]

	var (
		names *[]string
		kind  entities.KindFilter
		sc    ScoreContext
	)
	switch {
	case len(parsed.AffiliationNames) > 0:
		names, kind, sc = &parsed.AffiliationNames, entities.GroupsOnly, MemberNamesContext(parsed.AuthorNames...)
	case len(parsed.AuthorNames) > 0:
		names, kind, sc = &parsed.AuthorNames, entities.AnyKind, ScoreContext{}
	default:
		return nil
	}

	last := len(*names) - 1
	partial := (*names)[last] + trailing
	suffix, err := p.index.Autocomplete(ctx, partial, kind, sc)
	if err != nil {
		return fmt.Errorf("autocompleting %q: %w", partial, err)
	}
	if suffix == "" {
		return nil
	}

	(*names)[last] = strings.TrimSpace(partial + suffix)
	parsed.Text = raw + suffix
	parsed.Suffix = suffix
	return nil
}

// FromByline rebuilds the parser state for a saved byline, with every
// resolver preselected to the credited nick.
func (p *BylineParser) FromByline(ctx context.Context, byline *entities.Byline) (*ParsedByline, error) {
	parsed := &ParsedByline{
		AuthorNames:      make([]string, 0, len(byline.Authors)),
		AffiliationNames: make([]string, 0, len(byline.Affiliations)),
		Authors:          make([]*NickResolver, 0, len(byline.Authors)),
		Affiliations:     make([]*NickResolver, 0, len(byline.Affiliations)),
	}

	for i := range byline.Authors {
		r, err := p.resolver.FromNick(ctx, &byline.Authors[i], entities.AnyKind)
		if err != nil {
			return nil, err
		}
		parsed.AuthorNames = append(parsed.AuthorNames, byline.Authors[i].Name)
		parsed.Authors = append(parsed.Authors, r)
	}
	for i := range byline.Affiliations {
		r, err := p.resolver.FromNick(ctx, &byline.Affiliations[i], entities.GroupsOnly)
		if err != nil {
			return nil, err
		}
		parsed.AffiliationNames = append(parsed.AffiliationNames, byline.Affiliations[i].Name)
		parsed.Affiliations = append(parsed.Affiliations, r)
	}

	parsed.Text = parsed.Normalized()
	return parsed, nil
}

func priorAt(selections []entities.Selection, i int) entities.Selection {
	if i < len(selections) {
		return selections[i]
	}
	return entities.Selection{}
}
