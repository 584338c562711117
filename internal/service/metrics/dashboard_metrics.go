package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coindash",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of dashboard endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coindash",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by dashboard endpoint",
		},
		[]string{"endpoint"},
	)

	// DegradedFields counts dashboard fields served from fallback data.
	DegradedFields = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coindash",
			Subsystem: "dashboard",
			Name:      "degraded_fields_total",
			Help:      "Dashboard fields answered with fallback data",
		},
		[]string{"field"},
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coindash",
			Subsystem: "dashboard",
			Name:      "stream_clients",
			Help:      "Open dashboard websocket streams",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, DegradedFields, StreamClients)
	})
}
