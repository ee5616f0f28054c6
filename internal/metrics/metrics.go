// Package metrics exposes backup run statistics as Prometheus metrics.
// A batch job has no scrape endpoint, so the registry is written to a file
// picked up by the node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sayam753/SendToS3/internal/report"
	"github.com/Sayam753/SendToS3/internal/retention"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "sendtos3"

// Metrics holds the collectors of one run.
type Metrics struct {
	registry     *prometheus.Registry
	filesTotal   *prometheus.CounterVec
	deletedTotal *prometheus.CounterVec
	bytesTotal   *prometheus.CounterVec
	runDuration  prometheus.Gauge
	runTimestamp prometheus.Gauge
	lastSuccess  prometheus.Gauge
	issues       prometheus.Gauge
	technologies prometheus.Gauge
	errors       *prometheus.GaugeVec
}

// New creates the collectors on a private registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Files processed by upload status",
			},
			[]string{"technology", "status"},
		),
		deletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_deleted_total",
				Help:      "Local files deleted after a successful upload",
			},
			[]string{"technology"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploaded_bytes_total",
				Help:      "Bytes uploaded to the object store",
			},
			[]string{"technology"},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of the last backup run",
			},
		),
		runTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last backup run finished",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last run without issues",
			},
		),
		issues: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "technologies_with_issues",
				Help:      "Technologies that did not complete cleanly in the last run",
			},
		),
		technologies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "technologies",
				Help:      "Technologies configured for the last run",
			},
		),
		errors: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_errors",
				Help:      "Errors reported by the last run by kind",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(
		m.filesTotal,
		m.deletedTotal,
		m.bytesTotal,
		m.runDuration,
		m.runTimestamp,
		m.lastSuccess,
		m.issues,
		m.technologies,
		m.errors,
	)

	return m
}

// ObserveOutcome records one file.
func (m *Metrics) ObserveOutcome(o retention.Outcome) {
	m.filesTotal.WithLabelValues(o.Technology, string(o.Status)).Inc()
	if o.Failed() {
		return
	}
	m.bytesTotal.WithLabelValues(o.Technology).Add(float64(o.Size))
	if o.DeletedLocally {
		m.deletedTotal.WithLabelValues(o.Technology).Inc()
	}
}

// ObserveRun records the run totals of a finished report.
func (m *Metrics) ObserveRun(r *report.Report) {
	m.runDuration.Set(r.Elapsed().Seconds())
	m.runTimestamp.Set(float64(r.FinishedAt.Unix()))
	m.technologies.Set(float64(len(r.Summaries())))
	for kind, n := range r.ErrorKinds() {
		m.errors.WithLabelValues(kind).Set(float64(n))
	}

	issues := r.Issues()
	m.issues.Set(float64(issues))
	if issues == 0 && r.Aborted() == "" {
		m.lastSuccess.Set(float64(r.FinishedAt.Unix()))
	}
}

// Gatherer returns the registry backing the metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format. The file
// is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
