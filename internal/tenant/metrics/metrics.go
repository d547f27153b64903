package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds collectors for tenant administration. Methods on a nil
// *Metrics are no-ops.
type Metrics struct {
	TenantsCreated      prometheus.Counter
	TenantStatusChanges *prometheus.CounterVec
	PlanChanges         prometheus.Counter
	TenantUsers         *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TenantStatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_tenant_status_changes_total",
			Help: "Tenant status transitions by target status",
		}, []string{"status"}),
		PlanChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_tenant_plan_changes_total",
			Help: "Tenants moved to a different plan",
		}),
		TenantUsers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_tenant_users_total",
			Help: "Tenant user mutations by operation",
		}, []string{"op"}),
	}
}

func (m *Metrics) IncrementTenantCreated() {
	if m == nil {
		return
	}
	m.TenantsCreated.Inc()
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m == nil {
		return
	}
	m.TenantStatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementPlanChange() {
	if m == nil {
		return
	}
	m.PlanChanges.Inc()
}

func (m *Metrics) IncrementUserCreated() {
	if m == nil {
		return
	}
	m.TenantUsers.WithLabelValues("created").Inc()
}

func (m *Metrics) IncrementUserDeleted() {
	if m == nil {
		return
	}
	m.TenantUsers.WithLabelValues("deleted").Inc()
}
