package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RowsLoaded.Add(8652)
	m.GeocodeFailures.Add(3)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteSnapshot(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "oppscore_rows_loaded_total 8652")
	assert.Contains(t, content, "oppscore_geocode_failures_total 3")
	assert.Contains(t, content, "oppscore_postcodes_forward_filled_total 0")
}

func TestMetricsGather(t *testing.T) {
	m := NewMetrics()
	m.GeocodeResolved.Inc()
	m.GeocodeResolved.Inc()

	families, err := m.registry.Gather()
	require.NoError(t, err)

	var resolved *dto.MetricFamily
	for _, family := range families {
		if family.GetName() == "oppscore_geocode_resolved_total" {
			resolved = family
		}
	}

	require.NotNil(t, resolved)
	require.Len(t, resolved.GetMetric(), 1)
	assert.Equal(t, 2.0, resolved.GetMetric()[0].GetCounter().GetValue())
}
