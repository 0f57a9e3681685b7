package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

// Update outcomes recorded by RecordContactUpdate.
const (
	OutcomeSuccess  = "success"
	OutcomeNoop     = "noop"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeFailure  = "failure"
)

// MetricsService owns the Prometheus registry and a few atomic counters for snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	contactUpdates  *prometheus.CounterVec
	storeSize       prometheus.Gauge
	backups         *prometheus.CounterVec

	requestCount    uint64
	requestNanos    uint64
	cacheHitCount   uint64
	cacheMissCount  uint64
	updateCount     uint64
	updateFailCount uint64
	storeOpCount    uint64
	storeOpNanos    uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency of cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency of cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contact_store_operation_seconds",
			Help:    "Duration of contact store reads and writes",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		contactUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_updates_total",
			Help: "Contact update requests by mode and outcome",
		}, []string{"mode", "outcome"}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contact_store_records",
			Help: "Number of records in the contact store after the last read or write",
		}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_backups_total",
			Help: "Contact store backups by outcome",
		}, []string{"outcome"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite,
		m.cacheHits, m.cacheMisses,
		m.storeDuration, m.contactUpdates, m.storeSize, m.backups,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestNanos, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStoreOp records the duration of a contact store read or write.
func (m *MetricsService) ObserveStoreOp(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOpCount, 1)
	atomic.AddUint64(&m.storeOpNanos, uint64(duration.Nanoseconds()))
}

// SetStoreSize updates the record count gauge.
func (m *MetricsService) SetStoreSize(n int) {
	if m == nil {
		return
	}
	m.storeSize.Set(float64(n))
}

// RecordContactUpdate counts an update request by mode ("single" or "bulk") and outcome.
func (m *MetricsService) RecordContactUpdate(mode, outcome string) {
	if m == nil {
		return
	}
	m.contactUpdates.WithLabelValues(mode, outcome).Inc()
	if outcome == OutcomeFailure {
		atomic.AddUint64(&m.updateFailCount, 1)
		return
	}
	atomic.AddUint64(&m.updateCount, 1)
}

// RecordBackup counts a backup attempt.
func (m *MetricsService) RecordBackup(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.backups.WithLabelValues(OutcomeSuccess).Inc()
		return
	}
	m.backups.WithLabelValues(OutcomeFailure).Inc()
}

// Snapshot returns the aggregated counters.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	storeOps := atomic.LoadUint64(&m.storeOpCount)

	snap := models.MetricsSnapshot{
		RequestsTotal:         requests,
		CacheHits:             hits,
		CacheMisses:           misses,
		ContactUpdates:        atomic.LoadUint64(&m.updateCount),
		ContactUpdateFailures: atomic.LoadUint64(&m.updateFailCount),
		StoreOperations:       storeOps,
		Goroutines:            runtime.NumGoroutine(),
		GeneratedAt:           time.Now().UTC(),
	}
	if hits+misses > 0 {
		snap.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(atomic.LoadUint64(&m.requestNanos)) / float64(requests) / float64(time.Millisecond)
	}
	if storeOps > 0 {
		snap.AverageStoreOpDurationMs = float64(atomic.LoadUint64(&m.storeOpNanos)) / float64(storeOps) / float64(time.Millisecond)
	}
	return snap
}
