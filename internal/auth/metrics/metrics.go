package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the auth module.
// Tracks issued tokens, superseded sessions and best-effort revocation failures.
type Metrics struct {
	TokensIssued       *prometheus.CounterVec
	SessionsSuperseded prometheus.Counter
	RevocationFailures prometheus.Counter
	LoginFailures      prometheus.Counter
	IssueDuration      prometheus.Histogram
	RevocationCheckMs  prometheus.Histogram
}

// New registers the auth collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TokensIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pokevault_auth_tokens_issued_total",
			Help: "Total session tokens issued, by flow",
		}, []string{"flow"}),
		SessionsSuperseded: f.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_auth_sessions_superseded_total",
			Help: "Sessions replaced by a newer login",
		}),
		RevocationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_auth_revocation_failures_total",
			Help: "Best-effort token revocations that failed",
		}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_auth_login_failures_total",
			Help: "Rejected login attempts",
		}),
		IssueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pokevault_auth_issue_duration_seconds",
			Help:    "Duration of token issuance including the session swap",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RevocationCheckMs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pokevault_is_token_revoked_duration_ms",
			Help:    "Latency of token revocation checks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}

func (m *Metrics) IncrementTokensIssued(flow string) {
	m.TokensIssued.WithLabelValues(flow).Inc()
}

func (m *Metrics) IncrementSessionsSuperseded() {
	m.SessionsSuperseded.Inc()
}

func (m *Metrics) IncrementRevocationFailures() {
	m.RevocationFailures.Inc()
}

func (m *Metrics) IncrementLoginFailures() {
	m.LoginFailures.Inc()
}

// ObserveIssue records the duration of an Issue call started at start.
func (m *Metrics) ObserveIssue(start time.Time) {
	m.IssueDuration.Observe(time.Since(start).Seconds())
}

// ObserveRevocationCheck records a revocation lookup started at start.
func (m *Metrics) ObserveRevocationCheck(start time.Time) {
	m.RevocationCheckMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
