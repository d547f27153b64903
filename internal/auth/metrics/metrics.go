package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for authentication and sessions.
// Methods on a nil *Metrics are no-ops.
type Metrics struct {
	LoginAttempts        *prometheus.CounterVec
	LoginDurationMs      prometheus.Histogram
	AuthFailures         *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	SessionsRefreshed    prometheus.Counter
	SessionsRevoked      *prometheus.CounterVec
	RefreshReuse         prometheus.Counter
	LoginThrottled       prometheus.Counter
	ResolveDurationMs    *prometheus.HistogramVec
	ExpiredSessionsSwept prometheus.Counter
}

// New registers and returns auth metrics collectors.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_login_attempts_total",
			Help: "Login attempts by subject kind and outcome",
		}, []string{"kind", "outcome"}),
		LoginDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tenantgate_login_duration_ms",
			Help:    "Duration of login requests in milliseconds",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500},
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_auth_failures_total",
			Help: "Principal resolution failures by credential kind",
		}, []string{"credential"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tenantgate_active_sessions",
			Help: "Sessions created minus sessions revoked since process start",
		}),
		SessionsRefreshed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_sessions_refreshed_total",
			Help: "Successful session rotations",
		}),
		SessionsRevoked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_sessions_revoked_total",
			Help: "Sessions revoked by cause",
		}, []string{"cause"}),
		RefreshReuse: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_refresh_reuse_total",
			Help: "Refresh attempts presenting an already rotated session token",
		}),
		LoginThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_login_throttled_total",
			Help: "Login attempts rejected by the per-account throttle",
		}),
		ResolveDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tenantgate_principal_resolve_duration_ms",
			Help:    "Duration of principal resolution in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"credential"}),
		ExpiredSessionsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_expired_sessions_swept_total",
			Help: "Expired sessions deleted by the cleanup worker",
		}),
	}
}

func (m *Metrics) IncrementLogin(kind, outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveLoginDuration(durationMs float64) {
	if m == nil {
		return
	}
	m.LoginDurationMs.Observe(durationMs)
}

func (m *Metrics) IncrementAuthFailures(credential string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(credential).Inc()
}

func (m *Metrics) IncrementActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(float64(count))
}

func (m *Metrics) DecrementActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Sub(float64(count))
}

func (m *Metrics) IncrementRefreshed() {
	if m == nil {
		return
	}
	m.SessionsRefreshed.Inc()
}

func (m *Metrics) IncrementRevoked(cause string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.SessionsRevoked.WithLabelValues(cause).Add(float64(count))
}

func (m *Metrics) IncrementRefreshReuse() {
	if m == nil {
		return
	}
	m.RefreshReuse.Inc()
}

func (m *Metrics) IncrementLoginThrottled() {
	if m == nil {
		return
	}
	m.LoginThrottled.Inc()
}

func (m *Metrics) ObserveResolveDuration(credential string, durationMs float64) {
	if m == nil {
		return
	}
	m.ResolveDurationMs.WithLabelValues(credential).Observe(durationMs)
}

func (m *Metrics) AddExpiredSwept(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.ExpiredSessionsSwept.Add(float64(count))
}
