package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a point-in-time summary for the admin system endpoint.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	MatcherRuns              uint64    `json:"matcher_runs"`
	AssignmentsApplied       uint64    `json:"assignments_applied"`
	RowsImported             uint64    `json:"rows_imported"`
	RowsDropped              uint64    `json:"rows_dropped"`
	DBQueries                uint64    `json:"db_queries"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	matcherRuns     *prometheus.CounterVec
	matcherDuration prometheus.Observer
	assignments     prometheus.Counter
	importedRows    *prometheus.CounterVec
	conflicts       prometheus.Counter

	matcherRunCount      uint64
	assignmentCount      uint64
	importedCount        uint64
	droppedCount         uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	matcherRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_matcher_runs_total",
		Help: "Auto-assign matcher runs by outcome",
	}, []string{"outcome"})

	matcherDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_matcher_run_seconds",
		Help:    "Duration of auto-assign matcher runs",
		Buckets: prometheus.DefBuckets,
	})

	assignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_assignments_applied_total",
		Help: "Sections bound to faculty by the matcher",
	})

	importedRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_csv_rows_total",
		Help: "CSV schedule rows by import result",
	}, []string{"result"})

	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_conflicts_detected_total",
		Help: "Room conflicts reported as write warnings",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, dbQueryDuration,
		matcherRuns, matcherDuration, assignments, importedRows, conflicts, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		matcherRuns:     matcherRuns,
		matcherDuration: matcherDuration,
		assignments:     assignments,
		importedRows:    importedRows,
		conflicts:       conflicts,
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
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

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records the timing of one labelled store call.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordMatcherRun tracks one auto-assign pass.
func (m *MetricsService) RecordMatcherRun(applied int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case applied == 0:
		outcome = "noop"
	}
	m.matcherRuns.WithLabelValues(outcome).Inc()
	m.matcherDuration.Observe(duration.Seconds())
	if applied > 0 {
		m.assignments.Add(float64(applied))
		atomic.AddUint64(&m.assignmentCount, uint64(applied))
	}
	atomic.AddUint64(&m.matcherRunCount, 1)
}

// RecordImport tracks CSV rows accepted and dropped.
func (m *MetricsService) RecordImport(imported, dropped int) {
	if m == nil {
		return
	}
	m.importedRows.WithLabelValues("imported").Add(float64(imported))
	m.importedRows.WithLabelValues("dropped").Add(float64(dropped))
	atomic.AddUint64(&m.importedCount, uint64(imported))
	atomic.AddUint64(&m.droppedCount, uint64(dropped))
}

// RecordConflicts counts conflict warnings returned to clients.
func (m *MetricsService) RecordConflicts(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.conflicts.Add(float64(count))
}

// Snapshot returns aggregated counters for the admin system endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	queries := atomic.LoadUint64(&m.dbQueryCount)
	var avgQueryMs float64
	if queries > 0 {
		avgQueryMs = float64(atomic.LoadUint64(&m.dbQueryDurationTotal)) / float64(queries) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		MatcherRuns:              atomic.LoadUint64(&m.matcherRunCount),
		AssignmentsApplied:       atomic.LoadUint64(&m.assignmentCount),
		RowsImported:             atomic.LoadUint64(&m.importedCount),
		RowsDropped:              atomic.LoadUint64(&m.droppedCount),
		DBQueries:                queries,
		AverageDBQueryDurationMs: avgQueryMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
