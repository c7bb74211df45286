// Package metrics exposes reconciliation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reconcile"

// Metrics owns its own registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	workingSet     prometheus.Gauge
	rejected       prometheus.Gauge
	sourceFailures *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	writeBacks     *prometheus.CounterVec
	duplicates     *prometheus.CounterVec
	importRows     *prometheus.CounterVec
}

// New registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.workingSet = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "working_set_records",
		Help:      "Canonical records in the current working set",
	})
	m.rejected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rejected_records",
		Help:      "Records dropped by the validity filter on the last reload",
	})
	m.sourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Candidate locations that could not be read",
	}, []string{"collection"})
	m.reloadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reload_duration_seconds",
		Help:      "Time to ingest, normalize and filter all locations",
		Buckets:   prometheus.DefBuckets,
	})
	m.writeBacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "writebacks_total",
		Help:      "Edits and deletions written to source layouts",
	}, []string{"op", "route", "result"})
	m.duplicates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_removed_total",
		Help:      "Duplicate records processed by removal runs",
	}, []string{"result"})
	m.importRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Uploaded rows by outcome",
	}, []string{"outcome"})

	m.registry.MustRegister(
		m.workingSet,
		m.rejected,
		m.sourceFailures,
		m.reloadDuration,
		m.writeBacks,
		m.duplicates,
		m.importRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveReload records one reload.
func (m *Metrics) ObserveReload(kept, rejected int, failed []string, elapsed time.Duration) {
	m.workingSet.Set(float64(kept))
	m.rejected.Set(float64(rejected))
	for _, c := range failed {
		m.sourceFailures.WithLabelValues(c).Inc()
	}
	m.reloadDuration.Observe(elapsed.Seconds())
}

// ObserveWriteBack records one edit or deletion.
func (m *Metrics) ObserveWriteBack(op, route string, err error) {
	m.writeBacks.WithLabelValues(op, route, result(err)).Inc()
}

// ObserveDuplicates records a removal run.
func (m *Metrics) ObserveDuplicates(deleted, failed int) {
	m.duplicates.WithLabelValues("deleted").Add(float64(deleted))
	m.duplicates.WithLabelValues("failed").Add(float64(failed))
}

// ObserveImport records an import.
func (m *Metrics) ObserveImport(imported, duplicates, invalid int) {
	m.importRows.WithLabelValues("imported").Add(float64(imported))
	m.importRows.WithLabelValues("duplicate").Add(float64(duplicates))
	m.importRows.WithLabelValues("invalid").Add(float64(invalid))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
