// Package metrics counts crawl events in a private Prometheus registry and
// can export them to a node_exporter textfile when a run ends.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one run
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	SplitsTotal     prometheus.Counter
	DuplicatesTotal prometheus.Counter
	DiscoveredTotal prometheus.Counter
	EnrichedTotal   *prometheus.CounterVec
}

// New registers the crawl counters on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flickrgeo_requests_total",
			Help: "API requests made, retries included",
		}, []string{"phase", "outcome"}),
		SplitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "flickrgeo_segments_split_total",
			Help: "Date ranges bisected because their result count exceeded the ceiling",
		}),
		DuplicatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "flickrgeo_duplicates_total",
			Help: "Search hits ignored because their photo id was already seen",
		}),
		DiscoveredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "flickrgeo_records_discovered_total",
			Help: "Distinct photos found by the search phase",
		}),
		EnrichedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flickrgeo_records_enriched_total",
			Help: "Geodata lookups by outcome",
		}, []string{"outcome"}),
	}
}

// Request counts one API call
func (m *Metrics) Request(phase, outcome string) {
	m.RequestsTotal.WithLabelValues(phase, outcome).Inc()
}

// SegmentSplit counts one bisection
func (m *Metrics) SegmentSplit() {
	m.SplitsTotal.Inc()
}

// Duplicate counts one ignored hit
func (m *Metrics) Duplicate() {
	m.DuplicatesTotal.Inc()
}

// Discovered counts one new record
func (m *Metrics) Discovered() {
	m.DiscoveredTotal.Inc()
}

// Enriched counts one geodata lookup
func (m *Metrics) Enriched(outcome string) {
	m.EnrichedTotal.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
