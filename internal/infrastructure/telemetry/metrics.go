package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of label preparation and printing.
// It owns its registry so several collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	labelsPrepared       *prometheus.CounterVec
	preparationFailures  *prometheus.CounterVec
	renderBackendFailure *prometheus.CounterVec
	submitterFailures    *prometheus.CounterVec
	printItems           *prometheus.CounterVec
	jobsFinished         *prometheus.CounterVec
	jobsRunning          prometheus.Gauge
	prepareDuration      prometheus.Histogram
}

// NewCollector creates a collector registered on a fresh registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		labelsPrepared: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelbridge_labels_prepared_total",
			Help: "Labels prepared, by transform profile",
		}, []string{"profile"}),
		preparationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelbridge_label_preparation_failures_total",
			Help: "Records that failed preparation, by error code",
		}, []string{"code"}),
		renderBackendFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelbridge_render_backend_failures_total",
			Help: "Failed rasterization attempts, by backend",
		}, []string{"backend"}),
		submitterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelbridge_print_submitter_failures_total",
			Help: "Failed print submission attempts, by submitter",
		}, []string{"submitter"}),
		printItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelbridge_print_items_total",
			Help: "Print job items resolved, by outcome",
		}, []string{"status"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelbridge_print_jobs_finished_total",
			Help: "Print jobs finished, by final status",
		}, []string{"status"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labelbridge_print_jobs_running",
			Help: "Print jobs currently submitting",
		}),
		prepareDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labelbridge_label_prepare_seconds",
			Help:    "Time to prepare one record's label",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	c.registry.MustRegister(
		c.labelsPrepared,
		c.preparationFailures,
		c.renderBackendFailure,
		c.submitterFailures,
		c.printItems,
		c.jobsFinished,
		c.jobsRunning,
		c.prepareDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordLabelPrepared counts a prepared label
func (c *Collector) RecordLabelPrepared(profile string, seconds float64) {
	c.labelsPrepared.WithLabelValues(profile).Inc()
	c.prepareDuration.Observe(seconds)
}

// RecordPreparationFailure counts a record that produced no label
func (c *Collector) RecordPreparationFailure(code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	c.preparationFailures.WithLabelValues(code).Inc()
}

// RecordRenderFailure counts a failed rasterizer attempt. It matches the chain observer signature.
func (c *Collector) RecordRenderFailure(backend string, _ error) {
	c.renderBackendFailure.WithLabelValues(backend).Inc()
}

// RecordSubmitterFailure counts a failed submitter attempt
func (c *Collector) RecordSubmitterFailure(submitter string, _ error) {
	c.submitterFailures.WithLabelValues(submitter).Inc()
}

// RecordPrintItem counts a resolved job item
func (c *Collector) RecordPrintItem(status string) {
	c.printItems.WithLabelValues(status).Inc()
}

// JobStarted increments the running gauge
func (c *Collector) JobStarted() {
	c.jobsRunning.Inc()
}

// JobFinished decrements the running gauge and counts the final status
func (c *Collector) JobFinished(status string) {
	c.jobsRunning.Dec()
	c.jobsFinished.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
