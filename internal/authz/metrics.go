package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for authorization decisions. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Decisions        *prometheus.CounterVec
	DecisionDuration prometheus.Histogram
	GuardDenials     prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_authz_decisions_total",
			Help: "Gate decisions by capability and outcome",
		}, []string{"capability", "outcome"}),
		DecisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tenantgate_authz_decision_duration_seconds",
			Help:    "Time spent evaluating a gate decision, including plan and usage lookups",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		}),
		GuardDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_authz_cross_tenant_denials_total",
			Help: "Requests rejected by the tenant guard",
		}),
	}
}

func (m *Metrics) ObserveDecision(capability, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(capability, outcome).Inc()
	m.DecisionDuration.Observe(seconds)
}

func (m *Metrics) IncGuardDenied() {
	if m == nil {
		return
	}
	m.GuardDenials.Inc()
}
