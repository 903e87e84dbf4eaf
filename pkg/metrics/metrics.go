// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ScoresComputedTotal  *prometheus.CounterVec
	ScoreLatency         *prometheus.HistogramVec
	ScoreF1Distribution  *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	JobsIngestedTotal    prometheus.Counter
	ResultFlushesTotal   *prometheus.CounterVec
	ShardJobCount        *prometheus.GaugeVec
	ActiveShards         prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ScoresComputedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scores_computed_total",
				Help: "Total ROUGE scores computed by metric spec and outcome (ok, zero_overlap, error).",
			},
			[]string{"metric", "outcome"},
		),
		ScoreLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "score_latency_seconds",
				Help:    "Scoring latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"cache_status"},
		),
		ScoreF1Distribution: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "score_f1",
				Help:    "Distribution of computed F1 scores.",
				Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			},
			[]string{"metric"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of score cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of score cache misses.",
			},
		),
		JobsIngestedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jobs_ingested_total",
				Help: "Total evaluation jobs accepted for scoring.",
			},
		),
		ResultFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "result_flushes_total",
				Help: "Total result archive flush operations by status.",
			},
			[]string{"status"},
		),
		ShardJobCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shard_job_count",
				Help: "Number of evaluation jobs processed per shard.",
			},
			[]string{"shard_id"},
		),
		ActiveShards: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_shards",
				Help: "Number of active worker shards.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ScoresComputedTotal,
		m.ScoreLatency,
		m.ScoreF1Distribution,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.JobsIngestedTotal,
		m.ResultFlushesTotal,
		m.ShardJobCount,
		m.ActiveShards,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
