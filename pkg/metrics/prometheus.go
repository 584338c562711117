package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	limiterWaits    *prometheus.CounterVec
	limiterWaitSecs *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

var (
	shared     *Recorder
	sharedOnce sync.Once
)

// New returns the process-wide Prometheus recorder. Collectors are registered
// with the default registry exactly once.
func New() *Recorder {
	sharedOnce.Do(func() {
		shared = &Recorder{
			upstreamCalls: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "coindash_upstream_calls_total",
					Help: "Outbound provider calls by result",
				},
				[]string{"provider", "op", "result"},
			),
			upstreamLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "coindash_upstream_duration_seconds",
					Help:    "Outbound provider call latency",
					Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
				[]string{"provider", "op"},
			),
			cacheLookups: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "coindash_cache_lookups_total",
					Help: "Provider cache lookups by outcome",
				},
				[]string{"provider", "outcome"},
			),
			fallbacks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "coindash_fallbacks_total",
					Help: "Responses served from static fallback data",
				},
				[]string{"provider", "op"},
			),
			limiterWaits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "coindash_ratelimit_waits_total",
					Help: "Times a caller had to wait for a rate limiter slot",
				},
				[]string{"provider"},
			),
			limiterWaitSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "coindash_ratelimit_wait_seconds",
					Help:    "Time spent waiting for a rate limiter slot",
					Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
				},
				[]string{"provider"},
			),
			errorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "coindash_errors_total",
					Help: "Total number of errors encountered",
				},
				[]string{"type"},
			),
			latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "coindash_operation_duration_seconds",
					Help:    "Duration of operations in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
		}
	})
	return shared
}

// RecordUpstreamCall records one outbound call; result is "ok" or an error kind.
func (r *Recorder) RecordUpstreamCall(provider, op, result string, seconds float64) {
	r.upstreamCalls.WithLabelValues(provider, op, result).Inc()
	r.upstreamLatency.WithLabelValues(provider, op).Observe(seconds)
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(provider string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(provider, outcome).Inc()
}

// RecordFallback records a response that used fallback data.
func (r *Recorder) RecordFallback(provider, op string) {
	r.fallbacks.WithLabelValues(provider, op).Inc()
}

// RecordLimiterWait records a rate limiter wait.
func (r *Recorder) RecordLimiterWait(provider string, seconds float64) {
	r.limiterWaits.WithLabelValues(provider).Inc()
	r.limiterWaitSecs.WithLabelValues(provider).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordUpstreamCall(string, string, string, float64) {}
func (Nop) RecordCacheLookup(string, bool)                     {}
func (Nop) RecordFallback(string, string)                      {}
func (Nop) RecordLimiterWait(string, float64)                  {}
func (Nop) RecordError(string)                                 {}
func (Nop) RecordLatency(string, float64)                      {}
