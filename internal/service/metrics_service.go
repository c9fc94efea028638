package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/osms-api/internal/models"
)

// MetricsService owns the Prometheus registry and keeps running totals for
// the admin system view.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	gateDecisions   *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	invalidations   prometheus.Counter

	cacheHitCount         uint64
	cacheMissCount        uint64
	requestCount          uint64
	requestDurationTotal  uint64
	redirectCount         uint64
	compensationCount     uint64
	compensationFailCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	gateDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "osms_access_gate_decisions_total",
		Help: "Access gate outcomes by zone",
	}, []string{"zone", "outcome"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "osms_mutations_total",
		Help: "Completed data mutations by action",
	}, []string{"action"})

	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "osms_saga_compensations_total",
		Help: "Compensating actions run after a failed workflow step",
	}, []string{"workflow", "result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "osms_view_cache_lookup_seconds",
		Help:    "View cache lookup latency",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "osms_view_cache_write_seconds",
		Help:    "View cache write latency",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "osms_view_cache_hit_ratio",
		Help: "View cache hits over lookups since start",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "osms_view_cache_hits_total",
		Help: "View cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "osms_view_cache_misses_total",
		Help: "View cache misses",
	})

	invalidations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "osms_view_invalidations_total",
		Help: "Cached views dropped by staleness signals",
	})

	registry.MustRegister(
		requestDuration, requestTotal, gateDecisions, mutations, compensations,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, invalidations,
		collectors.NewGoCollector(),
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		gateDecisions:   gateDecisions,
		mutations:       mutations,
		compensations:   compensations,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		invalidations:   invalidations,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveGateDecision counts an access gate outcome.
func (m *MetricsService) ObserveGateDecision(zone, outcome string, redirected bool) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(zone, outcome).Inc()
	if redirected {
		atomic.AddUint64(&m.redirectCount, 1)
	}
}

// RecordMutation counts a successful mutation.
func (m *MetricsService) RecordMutation(action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(action).Inc()
}

// RecordCompensation counts a compensating action and whether it succeeded.
func (m *MetricsService) RecordCompensation(workflow string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
		atomic.AddUint64(&m.compensationFailCount, 1)
	}
	m.compensations.WithLabelValues(workflow, result).Inc()
	atomic.AddUint64(&m.compensationCount, 1)
}

// RecordCacheOperation records a view cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite records a view cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordInvalidation adds dropped view entries.
func (m *MetricsService) RecordInvalidation(keys int) {
	if m == nil || keys <= 0 {
		return
	}
	m.invalidations.Add(float64(keys))
}

// Snapshot returns aggregated metrics for the admin system view.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		GateRedirects:            atomic.LoadUint64(&m.redirectCount),
		Compensations:            atomic.LoadUint64(&m.compensationCount),
		FailedCompensations:      atomic.LoadUint64(&m.compensationFailCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
