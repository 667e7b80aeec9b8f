package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes recorded by RecordResolution.
const (
	OutcomeIDLookup  = "id_lookup"
	OutcomeSelected  = "selected"
	OutcomeAmbiguous = "ambiguous"
	OutcomePrior     = "prior"
)

// Commit results recorded by RecordCommit.
const (
	CommitCreated  = "created"
	CommitExisting = "existing"
	CommitFailed   = "failed"
)

// Metrics contains the Prometheus metrics for name resolution.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// VariantSearches counts variant index queries, labeled by mode (exact, prefix).
	VariantSearches *prometheus.CounterVec

	// Resolutions counts nick resolutions, labeled by outcome.
	Resolutions *prometheus.CounterVec

	// SuggestionsPerResolution observes the size of suggestion lists.
	SuggestionsPerResolution prometheus.Histogram

	// SelectionCommits counts commits, labeled by result.
	SelectionCommits *prometheus.CounterVec

	// StaleSelections counts posted choices missing from the suggestion list, labeled by policy.
	StaleSelections *prometheus.CounterVec
}

// NewMetrics creates metrics registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		VariantSearches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_searches_total",
			Help:      "Total number of nick variant searches",
		}, []string{"mode"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of nick resolutions by outcome",
		}, []string{"outcome"}),
		SuggestionsPerResolution: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggestions_per_resolution",
			Help:      "Number of suggestions offered per resolution",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		}),
		SelectionCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_commits_total",
			Help:      "Total number of selection commits by result",
		}, []string{"result"}),
		StaleSelections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_selections_total",
			Help:      "Posted choices that were not in the current suggestion list",
		}, []string{"policy"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSearch records one variant search.
func (m *Metrics) RecordSearch(exact bool) {
	if m == nil {
		return
	}
	mode := "prefix"
	if exact {
		mode = "exact"
	}
	m.VariantSearches.WithLabelValues(mode).Inc()
}

// RecordResolution records the outcome of one nick resolution.
func (m *Metrics) RecordResolution(outcome string, suggestions int) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
	m.SuggestionsPerResolution.Observe(float64(suggestions))
}

// RecordCommit records the result of committing a selection.
func (m *Metrics) RecordCommit(result string) {
	if m == nil {
		return
	}
	m.SelectionCommits.WithLabelValues(result).Inc()
}

// RecordStale records a posted choice that was not among the suggestions.
func (m *Metrics) RecordStale(policy string) {
	if m == nil {
		return
	}
	m.StaleSelections.WithLabelValues(policy).Inc()
}

// WriteTextfile writes all metrics in the text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
