package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the upstream client and the response cache.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	BreakerState     prometheus.Gauge
	CacheLookups     *prometheus.CounterVec
	CacheErrors      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pokevault_pokeapi_requests_total",
			Help: "Upstream PokeAPI requests by resource kind and outcome",
		}, []string{"kind", "status"}),
		UpstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pokevault_pokeapi_request_duration_seconds",
			Help:    "Upstream PokeAPI latency by resource kind",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "pokevault_pokeapi_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pokevault_pokeapi_cache_lookups_total",
			Help: "Cache lookups by kind and result (hit or miss)",
		}, []string{"kind", "result"}),
		CacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pokevault_pokeapi_cache_errors_total",
			Help: "Cache store failures that fell back to the upstream",
		}, []string{"op"}),
	}
}

func (m *Metrics) ObserveUpstream(kind, status string, start time.Time) {
	m.UpstreamRequests.WithLabelValues(kind, status).Inc()
	m.UpstreamDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) CacheHit(kind string)  { m.CacheLookups.WithLabelValues(kind, "hit").Inc() }
func (m *Metrics) CacheMiss(kind string) { m.CacheLookups.WithLabelValues(kind, "miss").Inc() }
func (m *Metrics) CacheError(op string)  { m.CacheErrors.WithLabelValues(op).Inc() }
