package telemetry

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	atomicio "github.com/foodlytics/oppscore/internal/io"
)

// Metrics holds the run counters on a private registry. There is no server
// and nothing to scrape: the batch writes one snapshot artifact at the end
// of the run.
type Metrics struct {
	registry *prometheus.Registry

	RowsLoaded     prometheus.Counter
	RowsExploded   prometheus.Counter
	RowsWithDemand prometheus.Counter

	GeocodeCacheHits prometheus.Counter
	GeocodeResolved  prometheus.Counter
	GeocodeFailures  prometheus.Counter
	PostcodesFilled  prometheus.Counter
}

// NewMetrics creates and registers the run counters.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oppscore",
			Name:      name,
			Help:      help,
		})
		m.registry.MustRegister(c)
		return c
	}

	m.RowsLoaded = counter("rows_loaded_total", "Rows retained by the country filter.")
	m.RowsExploded = counter("rows_exploded_total", "Rows after cuisine expansion.")
	m.RowsWithDemand = counter("rows_with_demand_total", "Rows retained by the demand filter.")
	m.GeocodeCacheHits = counter("geocode_cache_hits_total", "Postcodes served from cache.")
	m.GeocodeResolved = counter("geocode_resolved_total", "Postcodes resolved by the provider.")
	m.GeocodeFailures = counter("geocode_failures_total", "Reverse geocode calls that errored.")
	m.PostcodesFilled = counter("postcodes_forward_filled_total", "Postcodes backfilled within a locality group.")

	return m
}

// WriteSnapshot gathers the registry and writes it to path in the text
// exposition format.
func (m *Metrics) WriteSnapshot(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return fmt.Errorf("failed to encode metric family %s: %w", family.GetName(), err)
		}
	}

	return atomicio.WriteFileAtomic(path, buf.Bytes())
}
