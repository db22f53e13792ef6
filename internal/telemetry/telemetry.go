// Package telemetry exports siteboard's Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siteboard"

// Metrics holds every siteboard collector. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Imports
	ImportItems *prometheus.CounterVec

	// Importance recompute
	RecomputeProcessed prometheus.Counter
	RecomputeDuration  prometheus.Histogram

	// Google sync
	SyncRuns     *prometheus.CounterVec
	SyncRows     *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}
	factory := promauto.With(reg)
	initHTTPMetrics(m, factory)
	initImportMetrics(m, factory)
	initSyncMetrics(m, factory)
	return m
}

func initHTTPMetrics(m *Metrics, factory promauto.Factory) {
	m.RequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	m.RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})
}

func initImportMetrics(m *Metrics, factory promauto.Factory) {
	m.ImportItems = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_items_total",
		Help:      "Imported backlink items by source and outcome",
	}, []string{"source", "outcome"})

	m.RecomputeProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "importance_recomputed_total",
		Help:      "Backlink sites whose importance score was recomputed",
	})

	m.RecomputeDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "importance_recompute_batch_seconds",
		Help:      "Time to recompute one batch of importance scores",
		Buckets:   prometheus.DefBuckets,
	})
}

func initSyncMetrics(m *Metrics, factory promauto.Factory) {
	m.SyncRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Connector sync runs by type and outcome",
	}, []string{"type", "outcome"})

	m.SyncRows = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_rows_total",
		Help:      "Daily rows written by connector sync",
	}, []string{"type"})

	m.SyncDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of one connector sync",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"type"})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordImport counts the outcome of a backlink import batch.
func (m *Metrics) RecordImport(source string, created, updated, failed int) {
	if m == nil {
		return
	}
	m.ImportItems.WithLabelValues(source, "created").Add(float64(created))
	m.ImportItems.WithLabelValues(source, "updated").Add(float64(updated))
	m.ImportItems.WithLabelValues(source, "failed").Add(float64(failed))
}

// RecordRecomputeBatch counts one finished recompute batch.
func (m *Metrics) RecordRecomputeBatch(n int, d time.Duration) {
	if m == nil {
		return
	}
	m.RecomputeProcessed.Add(float64(n))
	m.RecomputeDuration.Observe(d.Seconds())
}

// RecordSync counts one connector sync.
func (m *Metrics) RecordSync(connectorType string, rows int, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.SyncRuns.WithLabelValues(connectorType, outcome).Inc()
	m.SyncRows.WithLabelValues(connectorType).Add(float64(rows))
	m.SyncDuration.WithLabelValues(connectorType).Observe(d.Seconds())
}
