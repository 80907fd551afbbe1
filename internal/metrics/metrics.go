// Package metrics holds the Prometheus collectors of an index build and of
// the search surfaces. Collectors live on a private registry so tests and
// concurrent builds never share counters.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons for PagesSkippedTotal.
const (
	SkipHidden     = "hidden"
	SkipParseError = "parse_error"
	SkipNoRecords  = "no_records"
)

// Metrics holds all docindex collectors.
type Metrics struct {
	Registry *prometheus.Registry

	PagesScannedTotal  prometheus.Counter
	PagesSkippedTotal  *prometheus.CounterVec
	RecordsBuiltTotal  *prometheus.CounterVec
	DuplicatesDropped  prometheus.Counter
	PagesReplaced      prometheus.Counter
	BuildDuration      prometheus.Histogram
	PublishDuration    *prometheus.HistogramVec
	PublishTotal       *prometheus.CounterVec
	SearchDuration     *prometheus.HistogramVec
	SearchResultsTotal prometheus.Counter

	BuildInfo *prometheus.GaugeVec
}

// New creates a Metrics instance registered on a fresh registry.
func New(version string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		PagesScannedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docindex_pages_scanned_total",
			Help: "HTML pages found in the dist directory.",
		}),
		PagesSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_pages_skipped_total",
				Help: "Pages left out of the index, by reason.",
			},
			[]string{"reason"},
		),
		RecordsBuiltTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_records_built_total",
				Help: "Search records built, by record type.",
			},
			[]string{"type"},
		),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docindex_duplicate_anchors_dropped_total",
			Help: "Sections dropped because their anchor repeated within a page.",
		}),
		PagesReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docindex_pages_replaced_total",
			Help: "Pages replaced by a later file with the same page ID.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docindex_build_duration_seconds",
			Help:    "Duration of scanning and record building.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),
		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docindex_publish_duration_seconds",
				Help:    "Duration of a publish, by backend.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"backend"},
		),
		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_publish_total",
				Help: "Publishes, by backend and result.",
			},
			[]string{"backend", "result"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docindex_search_duration_seconds",
				Help:    "Search latency, by backend.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"backend"},
		),
		SearchResultsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docindex_search_results_total",
			Help: "Entries returned to search surfaces after dedup.",
		}),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docindex_info",
				Help: "Build information.",
			},
			[]string{"version"},
		),
	}

	reg.MustRegister(
		m.PagesScannedTotal,
		m.PagesSkippedTotal,
		m.RecordsBuiltTotal,
		m.DuplicatesDropped,
		m.PagesReplaced,
		m.BuildDuration,
		m.PublishDuration,
		m.PublishTotal,
		m.SearchDuration,
		m.SearchResultsTotal,
		m.BuildInfo,
	)
	m.BuildInfo.WithLabelValues(version).Set(1)

	return m
}

// ObservePublish records one publish outcome.
func (m *Metrics) ObservePublish(backend string, d time.Duration, skipped bool, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case skipped:
		result = "skipped"
	}
	m.PublishTotal.WithLabelValues(backend, result).Inc()
	if err == nil && !skipped {
		m.PublishDuration.WithLabelValues(backend).Observe(d.Seconds())
	}
}

// ObserveSearch records one search.
func (m *Metrics) ObserveSearch(backend string, d time.Duration, results int) {
	if m == nil {
		return
	}
	m.SearchDuration.WithLabelValues(backend).Observe(d.Seconds())
	m.SearchResultsTotal.Add(float64(results))
}

// WriteTextfile writes a snapshot in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
