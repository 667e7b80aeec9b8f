package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
)

// ContextKind identifies which part of a ScoreContext is honored.
type ContextKind int

const (
	ContextNone ContextKind = iota
	ContextGroupIDs
	ContextGroupNames
	ContextMemberNames
)

// ScoreContext names the releasers already known to appear alongside the
// name being looked up. Only one of the sets is honored, in field order.
type ScoreContext struct {
	GroupIDs    []int64
	GroupNames  []string
	MemberNames []string
}

// GroupIDsContext scores candidates by membership of the given groups.
func GroupIDsContext(ids ...int64) ScoreContext {
	return ScoreContext{GroupIDs: ids}
}

// GroupNamesContext scores candidates by membership of groups with these names.
func GroupNamesContext(names ...string) ScoreContext {
	return ScoreContext{GroupNames: names}
}

// MemberNamesContext scores candidates by having members with these names.
func MemberNamesContext(names ...string) ScoreContext {
	return ScoreContext{MemberNames: names}
}

// Kind returns the context set that will be used for scoring.
func (c ScoreContext) Kind() ContextKind {
	switch {
	case len(c.GroupIDs) > 0:
		return ContextGroupIDs
	case len(nonEmpty(c.GroupNames)) > 0:
		return ContextGroupNames
	case len(nonEmpty(c.MemberNames)) > 0:
		return ContextMemberNames
	default:
		return ContextNone
	}
}

// CandidateScorer computes affinity scores: the number of membership edges
// joining a candidate releaser to the releasers named by a ScoreContext.
type CandidateScorer struct {
	relationalDB ports.RelationalDB
}

// NewCandidateScorer creates a new CandidateScorer.
func NewCandidateScorer(relationalDB ports.RelationalDB) *CandidateScorer {
	return &CandidateScorer{relationalDB: relationalDB}
}

// ContextIDs resolves a ScoreContext to releaser ids. Names are matched
// exactly (case-insensitive) against nick variants; group names only match
// groups.
func (s *CandidateScorer) ContextIDs(ctx context.Context, sc ScoreContext) ([]int64, error) {
	switch sc.Kind() {
	case ContextGroupIDs:
		return sc.GroupIDs, nil
	case ContextGroupNames:
		return s.idsForNames(ctx, nonEmpty(sc.GroupNames), entities.GroupsOnly)
	case ContextMemberNames:
		return s.idsForNames(ctx, nonEmpty(sc.MemberNames), entities.AnyKind)
	default:
		return nil, nil
	}
}

func (s *CandidateScorer) idsForNames(ctx context.Context, names []string, kind entities.KindFilter) ([]int64, error) {
	seen := make(map[int64]bool)
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		rows, err := s.relationalDB.FindVariants(ctx, ports.VariantQuery{Text: name, Exact: true, Kind: kind})
		if err != nil {
			return nil, fmt.Errorf("resolving context name %q: %w", name, err)
		}
		for i := range rows {
			id := rows[i].Releaser.ID
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// Score returns the affinity score of each candidate. Candidates with no
// edges into the context, and all candidates when the context is empty,
// are absent from the map (score 0).
func (s *CandidateScorer) Score(ctx context.Context, candidateIDs []int64, sc ScoreContext) (map[int64]int, error) {
	if len(candidateIDs) == 0 || sc.Kind() == ContextNone {
		return map[int64]int{}, nil
	}

	contextIDs, err := s.ContextIDs(ctx, sc)
	if err != nil {
		return nil, err
	}
	if len(contextIDs) == 0 {
		return map[int64]int{}, nil
	}

	scores, err := s.relationalDB.CountAffiliations(ctx, candidateIDs, contextIDs)
	if err != nil {
		return nil, fmt.Errorf("counting affiliations: %w", err)
	}
	return scores, nil
}

func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out
}
