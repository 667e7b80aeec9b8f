package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/observability"
)

// StalePolicy decides what happens to a posted choice that is not in the
// field's current suggestion list.
type StalePolicy string

const (
	// StaleSubstitute replaces the posted choice with the resolver's best guess.
	StaleSubstitute StalePolicy = "substitute"
	// StaleReject fails validation with a StaleSelectionError.
	StaleReject StalePolicy = "reject"
)

// ParseStalePolicy converts a config value to a StalePolicy. Empty means substitute.
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch StalePolicy(s) {
	case "", StaleSubstitute:
		return StaleSubstitute, nil
	case StaleReject:
		return StaleReject, nil
	default:
		return "", fmt.Errorf("unknown stale policy %q (want substitute or reject)", s)
	}
}

// NickField is a form field backed by a NickResolver.
type NickField struct {
	Name     string
	Resolver *NickResolver
	Policy   StalePolicy

	metrics *observability.Metrics
}

// NewNickField wraps r in a field named name.
func NewNickField(name string, r *NickResolver, policy StalePolicy, metrics *observability.Metrics) *NickField {
	if policy == "" {
		policy = StaleSubstitute
	}
	return &NickField{Name: name, Resolver: r, Policy: policy, metrics: metrics}
}

// Selection returns the field's current selection.
func (f *NickField) Selection() entities.Selection {
	return f.Resolver.Selection
}

// Valid reports whether the field has a selection.
func (f *NickField) Valid() bool {
	return f.Resolver.HasSelection()
}

// Changed reports whether the current selection differs from previous.
func (f *NickField) Changed(previous entities.Selection) bool {
	return !f.Resolver.Selection.Equal(previous)
}

// Choose applies a posted suggestion key. An empty key keeps the current
// selection. A key that the current suggestion list does not offer is
// stale: under StaleSubstitute it is ignored in favor of the best guess,
// under StaleReject it is an error.
func (f *NickField) Choose(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if sel, ok := f.lookup(key); ok {
		f.Resolver.Selection = sel
		return nil
	}

	f.metrics.RecordStale(string(f.Policy))
	if f.Policy == StaleReject {
		return &entities.StaleSelectionError{Field: f.Name, Key: key}
	}

	zerolog.Ctx(ctx).Warn().
		Str("field", f.Name).
		Str("key", key).
		Str("term", f.Resolver.SearchTerm).
		Stringer("substitute", f.Resolver.Selection).
		Msg("posted choice not in suggestions, using best guess")
	return nil
}

func (f *NickField) lookup(key string) (entities.Selection, bool) {
	if kind, name, named, ok := ParseSentinelKey(key); ok {
		// A bare key cannot say which text it was offered for.
		if !named || name != f.Resolver.SearchTerm {
			return entities.Selection{}, false
		}
		for i := range f.Resolver.Suggestions {
			s := &f.Resolver.Suggestions[i]
			if s.IsSentinel() && s.Selection.Kind() == kind {
				return s.Selection, true
			}
		}
		return entities.Selection{}, false
	}

	s, ok := f.Resolver.Suggestion(key)
	if !ok || s.IsSentinel() {
		return entities.Selection{}, false
	}
	return s.Selection, true
}

// Commit materializes the field's selection and stores the result back on
// the resolver.
func (f *NickField) Commit(ctx context.Context, c *SelectionCommitter) (entities.Selection, error) {
	committed, err := c.Commit(ctx, f.Resolver.Selection)
	if err != nil {
		return committed, fmt.Errorf("%s: %w", f.Name, err)
	}
	f.Resolver.Selection = committed
	return committed, nil
}
