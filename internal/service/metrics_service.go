package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and keeps lightweight counters for snapshots.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	cacheLatency         prometheus.Observer
	cacheWrite           prometheus.Observer
	cacheHitRatio        prometheus.Gauge
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	registrations        *prometheus.CounterVec
	registrationDuration prometheus.Observer
	invariantViolations  prometheus.Counter
	applications         prometheus.Counter
	decisions            *prometheus.CounterVec
	completionsImported  prometheus.Counter
	dbQueryDuration      *prometheus.HistogramVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	violationCount       uint64
	applicationCount     uint64
	importedCount        uint64

	mu                sync.Mutex
	registrationCount map[string]uint64
	decisionCount     map[string]uint64
}

// NewMetricsService registers core Prometheus collectors on a private registry.
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
		Help:    "Latency for cache lookups",
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

	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrations_total",
		Help: "Registration attempts by outcome",
	}, []string{"outcome"})

	registrationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "registration_duration_seconds",
		Help:    "Time spent deciding a registration attempt",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	})

	invariantViolations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registration_invariant_violations_total",
		Help: "Observed enrolled > capacity states",
	})

	applications := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admissions_applications_total",
		Help: "Submitted admissions applications",
	})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admissions_decisions_total",
		Help: "Admissions decisions by resulting status",
	}, []string{"status"})

	completionsImported := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_completions_imported_total",
		Help: "Completion facts added from transcript imports",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		registrations, registrationDuration, invariantViolations, applications, decisions, completionsImported, dbQueryDuration, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHitRatio:        cacheHitRatio,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		registrations:        registrations,
		registrationDuration: registrationDuration,
		invariantViolations:  invariantViolations,
		applications:         applications,
		decisions:            decisions,
		completionsImported:  completionsImported,
		dbQueryDuration:      dbQueryDuration,
		registrationCount:    make(map[string]uint64),
		decisionCount:        make(map[string]uint64),
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

// ObserveHTTPRequest records request metrics.
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

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRegistration counts one registration attempt.
func (m *MetricsService) RecordRegistration(outcome models.RegistrationOutcome, duration time.Duration) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(string(outcome)).Inc()
	m.registrationDuration.Observe(duration.Seconds())
	m.mu.Lock()
	m.registrationCount[string(outcome)]++
	m.mu.Unlock()
}

// RecordInvariantViolation counts an enrolled > capacity observation.
func (m *MetricsService) RecordInvariantViolation() {
	if m == nil {
		return
	}
	m.invariantViolations.Inc()
	atomic.AddUint64(&m.violationCount, 1)
}

// RecordApplication counts a submitted application.
func (m *MetricsService) RecordApplication() {
	if m == nil {
		return
	}
	m.applications.Inc()
	atomic.AddUint64(&m.applicationCount, 1)
}

// RecordDecision counts an applied admissions decision.
func (m *MetricsService) RecordDecision(status models.ApplicationStatus) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(status)).Inc()
	m.mu.Lock()
	m.decisionCount[string(status)]++
	m.mu.Unlock()
}

// RecordCompletionsImported counts completion facts added by an import run.
func (m *MetricsService) RecordCompletionsImported(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.completionsImported.Add(float64(n))
	atomic.AddUint64(&m.importedCount, uint64(n))
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// Snapshot returns aggregated counters for the metrics summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
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

	m.mu.Lock()
	registrations := make(map[string]uint64, len(m.registrationCount))
	for k, v := range m.registrationCount {
		registrations[k] = v
	}
	decisions := make(map[string]uint64, len(m.decisionCount))
	for k, v := range m.decisionCount {
		decisions[k] = v
	}
	m.mu.Unlock()

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		Registrations:            registrations,
		InvariantViolations:      atomic.LoadUint64(&m.violationCount),
		ApplicationsSubmitted:    atomic.LoadUint64(&m.applicationCount),
		Decisions:                decisions,
		CompletionsImported:      atomic.LoadUint64(&m.importedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
