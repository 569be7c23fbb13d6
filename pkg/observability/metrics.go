package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the stats service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Stats cache metrics
	BucketHitsTotal      *prometheus.CounterVec
	BucketMissesTotal    *prometheus.CounterVec
	BucketPopulatesTotal *prometheus.CounterVec

	// Count service metrics
	CountCallsTotal   *prometheus.CounterVec
	CountCallDuration *prometheus.HistogramVec

	// Sweeper metrics
	SweptBucketsTotal   *prometheus.CounterVec
	DanglingKeysTotal   *prometheus.CounterVec
	SweepErrorsTotal    *prometheus.CounterVec

	// Nightly warm metrics
	WarmedEntitiesTotal *prometheus.CounterVec
	WarmBatchDuration   *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics on the
// given registry (a fresh one when nil).
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "talentstats_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		BucketHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_bucket_hits_total",
				Help: "Day-total reads answered from a complete hour bucket",
			},
			[]string{"kind"},
		),
		BucketMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_bucket_misses_total",
				Help: "Day-total reads that required populating a bucket",
			},
			[]string{"kind"},
		),
		BucketPopulatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_bucket_populates_total",
				Help: "Hour bucket populate passes, by outcome",
			},
			[]string{"kind", "status"},
		),

		CountCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_count_calls_total",
				Help: "Calls to the external candidate count service",
			},
			[]string{"operation", "status"},
		),
		CountCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "talentstats_count_call_duration_seconds",
				Help:    "Count service call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		SweptBucketsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_swept_buckets_total",
				Help: "Hour buckets deleted by the retention sweeper",
			},
			[]string{"kind", "reason"},
		),
		DanglingKeysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_dangling_keys_total",
				Help: "Index keys removed because the owning entity was deleted",
			},
			[]string{"kind"},
		),
		SweepErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_sweep_errors_total",
				Help: "Errors encountered while sweeping, by kind",
			},
			[]string{"kind"},
		),

		WarmedEntitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentstats_warmed_entities_total",
				Help: "Entities pre-warmed by the nightly job, by outcome",
			},
			[]string{"kind", "status"},
		),
		WarmBatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "talentstats_warm_batch_duration_seconds",
				Help:    "Duration of one kind's nightly warm batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BucketHitsTotal,
		m.BucketMissesTotal,
		m.BucketPopulatesTotal,
		m.CountCallsTotal,
		m.CountCallDuration,
		m.SweptBucketsTotal,
		m.DanglingKeysTotal,
		m.SweepErrorsTotal,
		m.WarmedEntitiesTotal,
		m.WarmBatchDuration,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveCountCall records one count-service call.
func (m *Metrics) ObserveCountCall(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CountCallsTotal.WithLabelValues(operation, status).Inc()
	m.CountCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// BucketHit records a day-total read served from a complete bucket.
func (m *Metrics) BucketHit(kind string) {
	if m == nil {
		return
	}
	m.BucketHitsTotal.WithLabelValues(kind).Inc()
}

// BucketMiss records a day-total read that had to populate.
func (m *Metrics) BucketMiss(kind string) {
	if m == nil {
		return
	}
	m.BucketMissesTotal.WithLabelValues(kind).Inc()
}

// BucketPopulate records the outcome of a populate pass.
func (m *Metrics) BucketPopulate(kind, status string) {
	if m == nil {
		return
	}
	m.BucketPopulatesTotal.WithLabelValues(kind, status).Inc()
}

// SweptBucket records one bucket deletion with its reason
// ("retention" or "dangling").
func (m *Metrics) SweptBucket(kind, reason string) {
	if m == nil {
		return
	}
	m.SweptBucketsTotal.WithLabelValues(kind, reason).Inc()
}

// DanglingKey records removal of an index key for a deleted entity.
func (m *Metrics) DanglingKey(kind string) {
	if m == nil {
		return
	}
	m.DanglingKeysTotal.WithLabelValues(kind).Inc()
}

// SweepError records a non-fatal sweeping error.
func (m *Metrics) SweepError(kind string) {
	if m == nil {
		return
	}
	m.SweepErrorsTotal.WithLabelValues(kind).Inc()
}

// WarmedEntity records one entity handled by the nightly warm batch.
// Failures are the status="error" series; no separate error counter.
func (m *Metrics) WarmedEntity(kind, status string) {
	if m == nil {
		return
	}
	m.WarmedEntitiesTotal.WithLabelValues(kind, status).Inc()
}

// ObserveWarmBatch records the duration of one kind's warm batch.
func (m *Metrics) ObserveWarmBatch(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WarmBatchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
