// Package metrics exposes Prometheus metrics for collection runs and the
// query API.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/removalscan/internal/model"
)

// Metrics holds the collectors on a private registry. All methods are safe
// to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// SourceRuns counts source collections by source and outcome.
	SourceRuns *prometheus.CounterVec
	// SourceRecords counts records collected per source.
	SourceRecords *prometheus.CounterVec
	// SourceDuration observes collection time per source.
	SourceDuration *prometheus.HistogramVec

	// RecordsAdded counts records appended to the store.
	RecordsAdded prometheus.Counter
	// StoreSize is the number of records in the store after the last run.
	StoreSize prometheus.Gauge
	// LastRun is the Unix time the last run finished.
	LastRun prometheus.Gauge

	// Requests counts API requests by route and status code.
	Requests *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SourceRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "removalscan_source_runs_total",
			Help: "Source collections by source and outcome",
		}, []string{"source", "outcome"}), // outcome: "ok", "failed"

		SourceRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "removalscan_source_records_total",
			Help: "Records collected by source",
		}, []string{"source"}),

		SourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "removalscan_source_duration_seconds",
			Help:    "Duration of source collection including fetch and parse",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		RecordsAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "removalscan_records_added_total",
			Help: "Records appended to the store",
		}),

		StoreSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "removalscan_store_records",
			Help: "Records in the store after the last update",
		}),

		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "removalscan_last_run_timestamp_seconds",
			Help: "Unix time of the last finished update",
		}),

		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "removalscan_api_requests_total",
			Help: "API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSource records the outcome of one source collection.
func (m *Metrics) ObserveSource(run model.SourceRun) {
	if m == nil {
		return
	}
	outcome := "ok"
	if run.Failed() {
		outcome = "failed"
	}
	m.SourceRuns.WithLabelValues(run.Name, outcome).Inc()
	m.SourceRecords.WithLabelValues(run.Name).Add(float64(run.Records))
	m.SourceDuration.WithLabelValues(run.Name).Observe(run.Duration.Seconds())
}

// ObserveRun records the totals of one update.
func (m *Metrics) ObserveRun(run model.Run) {
	if m == nil {
		return
	}
	m.RecordsAdded.Add(float64(run.Added))
	m.StoreSize.Set(float64(run.Total))
	m.LastRun.Set(float64(run.FinishedAt.Unix()))
}

// IncrementRequest records one API request.
func (m *Metrics) IncrementRequest(route string, code int) {
	if m != nil {
		m.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}

// SetStoreSize sets the store size gauge.
func (m *Metrics) SetStoreSize(n int) {
	if m != nil {
		m.StoreSize.Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values to path in the node exporter
// textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
