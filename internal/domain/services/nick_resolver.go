package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/observability"
)

// Keys of the synthetic "create new" suggestions.
const (
	KeyNewPerson = "new_person"
	KeyNewGroup  = "new_group"
)

// Suggestion class names, used by renderers to style each entry.
const (
	ClassExisting  = "existing"
	ClassNewPerson = "add_person"
	ClassNewGroup  = "add_group"
)

var permalinkPattern = regexp.MustCompile(`^https?://[^/\s]+/(?:sceners|groups|releasers)/(\d+)/?(?:[?#].*)?$`)

// ParseIDTerm extracts a releaser id from a search term that is either a
// bare number or a releaser permalink.
func ParseIDTerm(term string) (int64, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return 0, false
	}
	digits := term
	if m := permalinkPattern.FindStringSubmatch(term); m != nil {
		digits = m[1]
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Suggestion is one entry of a disambiguation list.
type Suggestion struct {
	Key            string             `json:"key"`
	Selection      entities.Selection `json:"selection"`
	Name           string             `json:"name"`
	Differentiator string             `json:"differentiator,omitempty"`
	CountryCode    string             `json:"country_code,omitempty"`
	Groups         []string           `json:"groups,omitempty"`
	AliasOf        string             `json:"alias_of,omitempty"`
	Score          int                `json:"score"`
	ClassName      string             `json:"class_name"`
}

// IsSentinel reports whether the suggestion creates a new releaser.
func (s *Suggestion) IsSentinel() bool {
	return s.Selection.IsPending()
}

// Label is the plain name, with the differentiator appended when present.
func (s *Suggestion) Label() string {
	if s.IsSentinel() {
		return fmt.Sprintf("create new %s named %s", s.Selection.Kind(), s.Name)
	}
	if s.Differentiator != "" {
		return fmt.Sprintf("%s (%s)", s.Name, s.Differentiator)
	}
	return s.Name
}

// GroupLabel decorates the label with the releaser's current groups.
func (s *Suggestion) GroupLabel() string {
	if len(s.Groups) == 0 {
		return s.Label()
	}
	return s.Label() + " / " + strings.Join(s.Groups, " ^ ")
}

// FullLabel is GroupLabel plus the country code and alias annotation.
func (s *Suggestion) FullLabel() string {
	label := s.GroupLabel()
	if s.CountryCode != "" {
		label = "[" + strings.ToUpper(s.CountryCode) + "] " + label
	}
	if s.AliasOf != "" {
		label += " (alias of " + s.AliasOf + ")"
	}
	return label
}

// ResolverOptions configures a single resolution.
type ResolverOptions struct {
	Kind    entities.KindFilter
	Context ScoreContext
	// Prior is a previously chosen selection to keep instead of guessing.
	Prior    entities.Selection
	IDLookup bool
	Limit    int
}

// NickResolver is the outcome of resolving one search term: a ranked
// suggestion list and the current selection, which is zero when the term
// is ambiguous.
type NickResolver struct {
	SearchTerm  string              `json:"search_term"`
	Kind        entities.KindFilter `json:"-"`
	Suggestions []Suggestion        `json:"suggestions"`
	Selection   entities.Selection  `json:"selection"`
	IDMatch     bool                `json:"id_match,omitempty"`
}

// HasSelection reports whether a selection has been made.
func (r *NickResolver) HasSelection() bool {
	return !r.Selection.IsZero()
}

// Suggestion returns the suggestion with the given key.
func (r *NickResolver) Suggestion(key string) (*Suggestion, bool) {
	for i := range r.Suggestions {
		if r.Suggestions[i].Key == key {
			return &r.Suggestions[i], true
		}
	}
	return nil, false
}

// Candidates returns the suggestions that refer to existing nicks.
func (r *NickResolver) Candidates() []Suggestion {
	out := make([]Suggestion, 0, len(r.Suggestions))
	for i := range r.Suggestions {
		if !r.Suggestions[i].IsSentinel() {
			out = append(out, r.Suggestions[i])
		}
	}
	return out
}

// Resolver builds NickResolvers. It only reads from the store.
type Resolver struct {
	relationalDB ports.RelationalDB
	index        *VariantIndex
	metrics      *observability.Metrics
}

// NewResolver creates a new Resolver.
func NewResolver(relationalDB ports.RelationalDB, index *VariantIndex, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		relationalDB: relationalDB,
		index:        index,
		metrics:      metrics,
	}
}

// Resolve looks up term and proposes a selection for it.
func (r *Resolver) Resolve(ctx context.Context, term string, opts ResolverOptions) (*NickResolver, error) {
	logger := zerolog.Ctx(ctx)
	term = strings.TrimSpace(term)

	var (
		nr      *NickResolver
		outcome string
		err     error
	)

	if opts.IDLookup {
		if id, ok := ParseIDTerm(term); ok {
			nr, err = r.resolveByID(ctx, term, id, opts.Kind)
			if err != nil {
				return nil, err
			}
			if nr != nil {
				outcome = observability.OutcomeIDLookup
			}
		}
	}

	if nr == nil {
		nr, err = r.resolveByName(ctx, term, opts)
		if err != nil {
			return nil, err
		}
		if nr.HasSelection() {
			outcome = observability.OutcomeSelected
		} else {
			outcome = observability.OutcomeAmbiguous
		}
	}

	nr.Suggestions = append(nr.Suggestions, sentinels(term, opts.Kind)...)

	if !opts.Prior.IsZero() {
		nr.Selection = opts.Prior
		outcome = observability.OutcomePrior
	}

	r.metrics.RecordResolution(outcome, len(nr.Suggestions))
	logger.Debug().
		Str("term", term).
		Str("outcome", outcome).
		Int("suggestions", len(nr.Suggestions)).
		Stringer("selection", nr.Selection).
		Msg("resolved nick")

	return nr, nil
}

// resolveByID returns nil when the id names no releaser the filter allows.
func (r *Resolver) resolveByID(ctx context.Context, term string, id int64, kind entities.KindFilter) (*NickResolver, error) {
	releaser, err := r.relationalDB.FindReleaserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding releaser %d: %w", id, err)
	}
	if releaser == nil || !kind.Allows(releaser.IsGroup) {
		return nil, nil
	}

	nicks, err := r.relationalDB.FindNicksByReleaser(ctx, releaser.ID)
	if err != nil {
		return nil, fmt.Errorf("finding nicks of releaser %d: %w", id, err)
	}
	sort.SliceStable(nicks, func(i, j int) bool {
		pi, pj := nicks[i].Name == releaser.Name, nicks[j].Name == releaser.Name
		if pi != pj {
			return pi
		}
		return strings.ToLower(nicks[i].Name) < strings.ToLower(nicks[j].Name)
	})

	groups, err := r.groupNames(ctx, []int64{releaser.ID})
	if err != nil {
		return nil, err
	}

	nr := &NickResolver{SearchTerm: term, Kind: kind, IDMatch: true}
	for i := range nicks {
		n := nicks[i]
		nr.Suggestions = append(nr.Suggestions, Suggestion{
			Key:            strconv.FormatInt(n.ID, 10),
			Selection:      entities.ExistingNick(&n),
			Name:           n.Name,
			Differentiator: n.Differentiator,
			CountryCode:    releaser.CountryCode,
			Groups:         groups[releaser.ID],
			ClassName:      ClassExisting,
		})
		if n.Name == releaser.Name {
			nr.Selection = entities.ExistingNick(&n)
		}
	}
	return nr, nil
}

func (r *Resolver) resolveByName(ctx context.Context, term string, opts ResolverOptions) (*NickResolver, error) {
	nr := &NickResolver{SearchTerm: term, Kind: opts.Kind}

	// The best guess needs every candidate; Limit only trims what is shown.
	matches, err := r.index.Search(ctx, term, SearchOptions{
		Exact:   true,
		Kind:    opts.Kind,
		Context: opts.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("searching variants for %q: %w", term, err)
	}
	matches = dedupeByNick(matches)
	if len(matches) == 0 {
		return nr, nil
	}

	if len(matches) == 1 || matches[0].Score > matches[1].Score {
		nr.Selection = entities.ExistingNick(&matches[0].Nick)
	}
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	releaserIDs := make([]int64, 0, len(matches))
	for i := range matches {
		releaserIDs = append(releaserIDs, matches[i].Releaser.ID)
	}
	groups, err := r.groupNames(ctx, releaserIDs)
	if err != nil {
		return nil, err
	}

	for i := range matches {
		m := &matches[i]
		s := Suggestion{
			Key:            strconv.FormatInt(m.Nick.ID, 10),
			Selection:      entities.ExistingNick(&m.Nick),
			Name:           m.Variant.Name,
			Differentiator: m.Nick.Differentiator,
			CountryCode:    m.Releaser.CountryCode,
			Groups:         groups[m.Releaser.ID],
			Score:          m.Score,
			ClassName:      ClassExisting,
		}
		if !m.IsPrimaryVariant {
			s.AliasOf = m.Nick.Name
		}
		nr.Suggestions = append(nr.Suggestions, s)
	}
	return nr, nil
}

// FromNick builds a resolver with n already selected, without searching.
func (r *Resolver) FromNick(ctx context.Context, n *entities.Nick, kind entities.KindFilter) (*NickResolver, error) {
	releaser, err := r.relationalDB.FindReleaserByID(ctx, n.ReleaserID)
	if err != nil {
		return nil, fmt.Errorf("finding releaser %d: %w", n.ReleaserID, err)
	}
	groups, err := r.groupNames(ctx, []int64{n.ReleaserID})
	if err != nil {
		return nil, err
	}

	s := Suggestion{
		Key:            strconv.FormatInt(n.ID, 10),
		Selection:      entities.ExistingNick(n),
		Name:           n.Name,
		Differentiator: n.Differentiator,
		Groups:         groups[n.ReleaserID],
		ClassName:      ClassExisting,
	}
	if releaser != nil {
		s.CountryCode = releaser.CountryCode
	}

	nr := &NickResolver{
		SearchTerm:  n.Name,
		Kind:        kind,
		Suggestions: append([]Suggestion{s}, sentinels(n.Name, kind)...),
		Selection:   entities.ExistingNick(n),
	}
	return nr, nil
}

func (r *Resolver) groupNames(ctx context.Context, releaserIDs []int64) (map[int64][]string, error) {
	groups, err := r.relationalDB.FindCurrentGroups(ctx, releaserIDs)
	if err != nil {
		return nil, fmt.Errorf("finding current groups: %w", err)
	}
	names := make(map[int64][]string, len(groups))
	for id, gs := range groups {
		for i := range gs {
			names[id] = append(names[id], gs[i].Name)
		}
	}
	return names, nil
}

// dedupeByNick keeps the best-ranked variant of each nick.
func dedupeByNick(matches []VariantMatch) []VariantMatch {
	seen := make(map[int64]bool, len(matches))
	out := matches[:0]
	for i := range matches {
		if seen[matches[i].Nick.ID] {
			continue
		}
		seen[matches[i].Nick.ID] = true
		out = append(out, matches[i])
	}
	return out
}

func sentinels(term string, kind entities.KindFilter) []Suggestion {
	if term == "" {
		return nil
	}
	var out []Suggestion
	if kind.AllowsKind(entities.KindPerson) {
		out = append(out, Suggestion{
			Key:       SentinelKey(entities.KindPerson, term),
			Selection: entities.Pending(term, entities.KindPerson),
			Name:      term,
			ClassName: ClassNewPerson,
		})
	}
	if kind.AllowsKind(entities.KindGroup) {
		out = append(out, Suggestion{
			Key:       SentinelKey(entities.KindGroup, term),
			Selection: entities.Pending(term, entities.KindGroup),
			Name:      term,
			ClassName: ClassNewGroup,
		})
	}
	return out
}

// SentinelKey is the key of the suggestion that creates a releaser of kind
// named name, e.g. "new_person:Gasman".
func SentinelKey(kind entities.Kind, name string) string {
	base := KeyNewPerson
	if kind == entities.KindGroup {
		base = KeyNewGroup
	}
	return base + ":" + name
}

// ParseSentinelKey splits a sentinel key of the form "new_person:<name>".
// named is false for a bare "new_person", which NickField treats as stale.
func ParseSentinelKey(key string) (kind entities.Kind, name string, named, ok bool) {
	base, name, named := strings.Cut(key, ":")
	switch base {
	case KeyNewPerson:
		return entities.KindPerson, name, named, true
	case KeyNewGroup:
		return entities.KindGroup, name, named, true
	default:
		return "", "", false, false
	}
}
