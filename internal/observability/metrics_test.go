package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("test")

	m.RecordSearch(true)
	m.RecordSearch(false)
	m.RecordSearch(false)
	m.RecordResolution(OutcomeSelected, 3)
	m.RecordResolution(OutcomeAmbiguous, 4)
	m.RecordCommit(CommitCreated)
	m.RecordStale("substitute")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			key := f.GetName()
			for _, l := range metric.GetLabel() {
				key += "/" + l.GetValue()
			}
			if c := metric.GetCounter(); c != nil {
				counts[key] = c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				counts[key] = float64(h.GetSampleCount())
			}
		}
	}

	assert.Equal(t, 1.0, counts["test_variant_searches_total/exact"])
	assert.Equal(t, 2.0, counts["test_variant_searches_total/prefix"])
	assert.Equal(t, 1.0, counts["test_resolutions_total/selected"])
	assert.Equal(t, 1.0, counts["test_resolutions_total/ambiguous"])
	assert.Equal(t, 2.0, counts["test_suggestions_per_resolution"])
	assert.Equal(t, 1.0, counts["test_selection_commits_total/created"])
	assert.Equal(t, 1.0, counts["test_stale_selections_total/substitute"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordSearch(true)
		m.RecordResolution(OutcomePrior, 1)
		m.RecordCommit(CommitFailed)
		m.RecordStale("reject")
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "metrics.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("credits")
	m.RecordCommit(CommitExisting)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `credits_selection_commits_total{result="existing"} 1`)
}
