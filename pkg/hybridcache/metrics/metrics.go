// Package metrics exposes the engine's Prometheus instrumentation: per-tier
// hit/miss counters and latency histograms, dedup collapse counts, and a
// circuit-breaker state gauge. Metrics are optional; a nil *Registry
// collected through every method here is a zero-overhead no-op.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric the engine emits, registered against a
// caller-supplied prometheus.Registerer.
type Registry struct {
	tierRequests   *prometheus.CounterVec
	tierLatency    *prometheus.HistogramVec
	tierSizeBytes  *prometheus.GaugeVec
	tierCapacity   *prometheus.GaugeVec
	dedupCollapsed prometheus.Gauge
	circuitState   *prometheus.GaugeVec
	partialRepairs *prometheus.CounterVec
	degradedEvents *prometheus.CounterVec
}

// New registers the engine's metrics against reg and returns a Registry.
// Pass prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to publish on the process-wide default.
func New(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)

	return &Registry{
		tierRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybridcache_tier_requests_total",
				Help: "Total read requests handled by each tier, by outcome.",
			},
			[]string{"tier", "outcome"}, // outcome: hit, miss, error
		),
		tierLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "hybridcache_tier_latency_milliseconds",
				Help: "Latency of a tier's Get call.",
				Buckets: []float64{
					0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000,
				},
			},
			[]string{"tier"},
		),
		tierSizeBytes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hybridcache_tier_used_bytes",
				Help: "Bytes currently occupied in a tier.",
			},
			[]string{"tier"},
		),
		tierCapacity: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hybridcache_tier_capacity_bytes",
				Help: "Configured capacity of a tier, 0 meaning unbounded.",
			},
			[]string{"tier"},
		),
		dedupCollapsed: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "hybridcache_dedup_collapsed_total",
				Help: "Cumulative number of concurrent requests collapsed onto an in-flight fetch.",
			},
		),
		circuitState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hybridcache_circuit_state",
				Help: "Circuit breaker state per tier: 0=closed, 1=half-open, 2=open.",
			},
			[]string{"tier"},
		),
		partialRepairs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybridcache_partial_repairs_total",
				Help: "Partial-response repair attempts, by outcome.",
			},
			[]string{"kind", "outcome"}, // outcome: repaired, still-partial
		),
		degradedEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybridcache_degraded_events_total",
				Help: "Degradation events emitted, by type.",
			},
			[]string{"type"},
		),
	}
}

func (r *Registry) ObserveTierRequest(tier, outcome string, latency time.Duration) {
	if r == nil {
		return
	}
	r.tierRequests.WithLabelValues(tier, outcome).Inc()
	r.tierLatency.WithLabelValues(tier).Observe(float64(latency.Microseconds()) / 1000)
}

func (r *Registry) SetTierSize(tier string, used, capacity int64) {
	if r == nil {
		return
	}
	r.tierSizeBytes.WithLabelValues(tier).Set(float64(used))
	r.tierCapacity.WithLabelValues(tier).Set(float64(capacity))
}

func (r *Registry) SetDedupCollapsed(total uint64) {
	if r == nil {
		return
	}
	r.dedupCollapsed.Set(float64(total))
}

// SetCircuitState records state as 0 (closed), 1 (half-open), or 2 (open).
func (r *Registry) SetCircuitState(tier string, state int) {
	if r == nil {
		return
	}
	r.circuitState.WithLabelValues(tier).Set(float64(state))
}

func (r *Registry) ObservePartialRepair(kind, outcome string) {
	if r == nil {
		return
	}
	r.partialRepairs.WithLabelValues(kind, outcome).Inc()
}

func (r *Registry) ObserveDegradedEvent(eventType string) {
	if r == nil {
		return
	}
	r.degradedEvents.WithLabelValues(eventType).Inc()
}
