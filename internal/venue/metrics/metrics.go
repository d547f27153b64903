package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts venue and booking mutations. Methods on a nil *Metrics are
// no-ops.
type Metrics struct {
	Venues   *prometheus.CounterVec
	Bookings *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Venues: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_venues_total",
			Help: "Venue mutations by operation",
		}, []string{"op"}),
		Bookings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_bookings_created_total",
			Help: "Bookings created by source",
		}, []string{"source"}),
	}
}

func (m *Metrics) IncrementVenueCreated() {
	if m == nil {
		return
	}
	m.Venues.WithLabelValues("created").Inc()
}

func (m *Metrics) IncrementVenueDeleted() {
	if m == nil {
		return
	}
	m.Venues.WithLabelValues("deleted").Inc()
}

func (m *Metrics) IncrementBookingCreated(source string) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(source).Inc()
}
