package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup sources recorded by the service.
const (
	SourceCache     = "cache"
	SourceDatastore = "datastore"
	SourceGateway   = "gateway"
	SourceNotFound  = "not_found"
	SourceError     = "error"
)

// Metrics provides observability for pokemon lookups.
type Metrics struct {
	// Lookup outcomes by the source that answered
	LookupTotal *prometheus.CounterVec

	// End-to-end lookup latency
	LookupLatency prometheus.Histogram

	// Cache gets and puts by result
	CacheOperations *prometheus.CounterVec

	// Outbound PokeAPI latency by endpoint and status class
	UpstreamLatency *prometheus.HistogramVec

	// 1 while the PokeAPI circuit is open
	CircuitOpen prometheus.Gauge
}

// New creates the pokemon metrics and registers them with reg. A nil reg
// registers with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		LookupTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pokegate_lookup_total",
			Help: "Total pokemon lookups by answering source",
		}, []string{"source"}),

		LookupLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pokegate_lookup_duration_seconds",
			Help:    "Duration of pokemon lookups including remote fetches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		CacheOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pokegate_cache_operations_total",
			Help: "Cache operations by operation and result",
		}, []string{"op", "result"}), // op: get|put, result: hit|miss|error|ok

		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pokegate_pokeapi_request_duration_seconds",
			Help:    "Duration of PokeAPI requests",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "status"}),

		CircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pokegate_pokeapi_circuit_open",
			Help: "Whether the PokeAPI circuit breaker is open (1) or closed (0)",
		}),
	}
}

// IncrementLookup records which source answered a lookup.
func (m *Metrics) IncrementLookup(source string) {
	if m != nil {
		m.LookupTotal.WithLabelValues(source).Inc()
	}
}

// ObserveLookupLatency records the total lookup duration.
func (m *Metrics) ObserveLookupLatency(d time.Duration) {
	if m != nil {
		m.LookupLatency.Observe(d.Seconds())
	}
}

// RecordCache records a cache operation result.
func (m *Metrics) RecordCache(op, result string) {
	if m != nil {
		m.CacheOperations.WithLabelValues(op, result).Inc()
	}
}

// ObserveUpstream records the duration of one PokeAPI request.
func (m *Metrics) ObserveUpstream(endpoint, status string, d time.Duration) {
	if m != nil {
		m.UpstreamLatency.WithLabelValues(endpoint, status).Observe(d.Seconds())
	}
}

// SetCircuitOpen flips the circuit gauge.
func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
