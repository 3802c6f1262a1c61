package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Synchronization metrics
	syncRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_sync_requests_total",
			Help: "Catalog requests by resource and outcome (fetched, not_modified, stale, offline, error)",
		},
		[]string{"resource", "outcome"},
	)

	syncLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wizard_sync_request_seconds",
			Help:    "Latency of catalog requests against the remote service",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	fallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_fallback_definitions_total",
			Help: "Built-in definitions served because the service was unavailable",
		},
		[]string{"indicator"},
	)

	offlineState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_catalog_offline",
			Help: "1 while the catalog runs on built-in definitions",
		},
	)

	// Advisory metrics
	advisoryCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_advisory_calls_total",
			Help: "Remote advisory calls by kind and result (ok, failed, skipped, stale)",
		},
		[]string{"kind", "result"},
	)

	// Validation metrics
	validationIssues = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wizard_validation_issues",
			Help:    "Number of local validation issues per rule set check",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	migrationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_condition_migrations_total",
			Help: "Conditions repaired by migration",
		},
	)
)

func init() {
	prometheus.MustRegister(syncRequestsTotal)
	prometheus.MustRegister(syncLatency)
	prometheus.MustRegister(fallbackTotal)
	prometheus.MustRegister(offlineState)
	prometheus.MustRegister(advisoryCallsTotal)
	prometheus.MustRegister(validationIssues)
	prometheus.MustRegister(migrationsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordSync records the outcome of one catalog request
func RecordSync(resource, outcome string, seconds float64) {
	syncRequestsTotal.WithLabelValues(resource, outcome).Inc()
	if seconds > 0 {
		syncLatency.WithLabelValues(resource).Observe(seconds)
	}
}

// RecordFallback records a built-in definition being served
func RecordFallback(indicator string) {
	fallbackTotal.WithLabelValues(indicator).Inc()
}

// SetOffline updates the offline gauge
func SetOffline(offline bool) {
	if offline {
		offlineState.Set(1)
		return
	}
	offlineState.Set(0)
}

// RecordAdvisory records one advisory call result
func RecordAdvisory(kind, result string) {
	advisoryCallsTotal.WithLabelValues(kind, result).Inc()
}

// RecordValidation records the number of local issues found
func RecordValidation(issues int) {
	validationIssues.Observe(float64(issues))
}

// RecordMigrations records repaired conditions
func RecordMigrations(n int) {
	if n > 0 {
		migrationsTotal.Add(float64(n))
	}
}
