// Package metrics exposes Prometheus metrics for the sorting subsystem.
// The library only registers collectors on its own registry; hosts that
// want to scrape them mount Handler on an HTTP server of their choosing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// SortsTotal counts completed sort operations, by outcome.
	SortsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "libloot",
		Subsystem: "sorting",
		Name:      "sorts_total",
		Help:      "Number of sort operations, labelled by outcome.",
	}, []string{"outcome"})

	// SortDurationSeconds observes wall-clock sort duration.
	SortDurationSeconds = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "libloot",
		Subsystem: "sorting",
		Name:      "sort_duration_seconds",
		Help:      "Wall-clock duration of sort operations.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// EdgesAddedTotal counts plugin-graph edges added, by edge type.
	EdgesAddedTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "libloot",
		Subsystem: "sorting",
		Name:      "edges_added_total",
		Help:      "Number of plugin graph edges added, labelled by edge type.",
	}, []string{"edge_type"})

	// CyclesDetectedTotal counts fatal cycles found during sorting.
	CyclesDetectedTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "libloot",
		Subsystem: "sorting",
		Name:      "cycles_detected_total",
		Help:      "Number of fatal cycles detected in plugin or group graphs.",
	})

	// GroupEdgesSkippedTotal counts group edges skipped to avoid cycles.
	GroupEdgesSkippedTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "libloot",
		Subsystem: "sorting",
		Name:      "group_edges_skipped_total",
		Help:      "Number of group edges skipped because they would close a cycle.",
	})
)

// Handler returns an HTTP handler serving this library's metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
