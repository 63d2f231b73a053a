// Package metrics exports merge and timing statistics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/mrzor/nblog/internal/analysis"
	"github.com/mrzor/nblog/internal/merger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the nblog metrics of one registry.
type Collector struct {
	registry *prometheus.Registry

	// Counters
	passes      prometheus.Counter
	records     prometheus.Counter
	lostBytes   prometheus.Counter
	skipped     prometheus.Counter
	lossMarkers prometheus.Counter
	faults      prometheus.Counter

	// Gauges
	sources    prometheus.Gauge
	wakeupP50  *prometheus.GaugeVec
	wakeupP99  *prometheus.GaugeVec
	wakeupRate *prometheus.GaugeVec
	peaks      *prometheus.GaugeVec

	// Histograms
	mergeDuration prometheus.Histogram

	// Internal tracking for Totals
	mu     sync.Mutex
	totals Totals
}

var _ merger.Observer = (*Collector)(nil)

// NewCollector registers the metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	c := &Collector{registry: reg}

	c.passes = factory.NewCounter(prometheus.CounterOpts{
		Name: "nblog_merge_passes_total",
		Help: "Merge passes run",
	})
	c.records = factory.NewCounter(prometheus.CounterOpts{
		Name: "nblog_merged_records_total",
		Help: "Records copied into the merged timeline",
	})
	c.lostBytes = factory.NewCounter(prometheus.CounterOpts{
		Name: "nblog_lost_bytes_total",
		Help: "Bytes overwritten before a reader could copy them",
	})
	c.skipped = factory.NewCounter(prometheus.CounterOpts{
		Name: "nblog_skipped_bytes_total",
		Help: "Bytes dropped because their record start was overwritten",
	})
	c.lossMarkers = factory.NewCounter(prometheus.CounterOpts{
		Name: "nblog_loss_markers_total",
		Help: "Loss marker records written to the merged timeline",
	})
	c.faults = factory.NewCounter(prometheus.CounterOpts{
		Name: "nblog_decode_faults_total",
		Help: "Entries that could not be decoded during merge",
	})

	c.sources = factory.NewGauge(prometheus.GaugeOpts{
		Name: "nblog_merge_sources",
		Help: "Readers registered with the merger",
	})
	c.wakeupP50 = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nblog_wakeup_interval_p50_seconds",
		Help: "Median time between wakeups",
	}, []string{"source"})
	c.wakeupP99 = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nblog_wakeup_interval_p99_seconds",
		Help: "99th percentile time between wakeups",
	}, []string{"source"})
	c.wakeupRate = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nblog_wakeup_rate_hertz",
		Help: "Wakeups per second",
	}, []string{"source"})
	c.peaks = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nblog_timing_peaks",
		Help: "Retained peaks in outlier spacing",
	}, []string{"source"})

	c.mergeDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "nblog_merge_duration_seconds",
		Help:    "Time spent in one merge pass",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
	})

	return c
}

// Registry returns the registry holding the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveMerge records one merge pass.
func (c *Collector) ObserveMerge(_ context.Context, s merger.Stats) error {
	c.passes.Inc()
	c.records.Add(float64(s.Records))
	c.lostBytes.Add(float64(s.Lost))
	c.skipped.Add(float64(s.Skipped))
	c.lossMarkers.Add(float64(s.LossMarkers))
	c.faults.Add(float64(s.Faults))
	c.sources.Set(float64(s.Sources))
	c.mergeDuration.Observe(s.Duration.Seconds())

	c.mu.Lock()
	c.totals.Passes++
	c.totals.Records += int64(s.Records)
	c.totals.Lost += s.Lost
	c.mu.Unlock()
	return nil
}

// ObserveSummary publishes the timing summary of one source.
func (c *Collector) ObserveSummary(source string, s analysis.Summary) {
	c.wakeupP50.WithLabelValues(source).Set(s.P50.Seconds())
	c.wakeupP99.WithLabelValues(source).Set(s.P99.Seconds())
	c.wakeupRate.WithLabelValues(source).Set(s.Rate)
	c.peaks.WithLabelValues(source).Set(float64(s.Peaks))
}

// Totals summarizes everything observed.
type Totals struct {
	Passes  int64
	Records int64
	Lost    uint64
}

// Totals returns the running totals.
func (c *Collector) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}
