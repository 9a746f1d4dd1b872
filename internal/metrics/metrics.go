// Package metrics collects per-run scraper metrics
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector provides scraper metrics collection
type Collector struct {
	registry *prometheus.Registry

	FetchAttemptsTotal *prometheus.CounterVec
	FetchFailuresTotal *prometheus.CounterVec
	RowsRejectedTotal  *prometheus.CounterVec
	RowsWritten        *prometheus.GaugeVec
	LastSuccess        *prometheus.GaugeVec
	RunDuration        prometheus.Histogram
}

// NewCollector creates a collector backed by its own registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		FetchAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Total number of HTTP fetch attempts by source",
			},
			[]string{"source"},
		),

		FetchFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_failures_total",
				Help:      "Total number of sources that could not be fetched after all retries",
			},
			[]string{"source"},
		),

		RowsRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_rejected_total",
				Help:      "Total number of candidate rows rejected by reason",
			},
			[]string{"source", "reason"},
		),

		RowsWritten: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rows_written",
				Help:      "Number of records in the last snapshot written per source",
			},
			[]string{"source"},
		),

		LastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful snapshot write per source",
			},
			[]string{"source"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a full scrape run in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
	}

	c.registry.MustRegister(
		c.FetchAttemptsTotal,
		c.FetchFailuresTotal,
		c.RowsRejectedTotal,
		c.RowsWritten,
		c.LastSuccess,
		c.RunDuration,
	)
	return c
}

// Registry exposes the underlying registry as a gatherer
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordFetchAttempt increments the attempt counter for a source
func (c *Collector) RecordFetchAttempt(source string) {
	c.FetchAttemptsTotal.WithLabelValues(source).Inc()
}

// RecordFetchFailure increments the exhausted-retries counter for a source
func (c *Collector) RecordFetchFailure(source string) {
	c.FetchFailuresTotal.WithLabelValues(source).Inc()
}

// RecordRejectedRow increments the rejected row counter
func (c *Collector) RecordRejectedRow(source, reason string) {
	c.RowsRejectedTotal.WithLabelValues(source, reason).Inc()
}

// RecordSnapshot stores the size and time of a written snapshot
func (c *Collector) RecordSnapshot(source string, rows int, at time.Time) {
	c.RowsWritten.WithLabelValues(source).Set(float64(rows))
	c.LastSuccess.WithLabelValues(source).Set(float64(at.Unix()))
}

// ObserveRun records the duration of a run
func (c *Collector) ObserveRun(d time.Duration) {
	c.RunDuration.Observe(d.Seconds())
}

// WriteTextfile dumps all metrics in the node_exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
