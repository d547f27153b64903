package service

import (
	"context"
	"errors"
	"log/slog"

	tenantmetrics "tenantgate/internal/tenant/metrics"
	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/tx"
)

// Stores groups the persistence the service reads and writes.
type Stores struct {
	Tenants       TenantStore
	Plans         PlanStore
	Usage         UsageStore
	Users         UserStore
	PlatformUsers PlatformUserStore
}

func (s Stores) validate() error {
	if s.Tenants == nil || s.Plans == nil || s.Usage == nil || s.Users == nil || s.PlatformUsers == nil {
		return errors.New("all tenant stores are required")
	}
	return nil
}

// Service administers tenants, plans and tenant users. Every operation is
// authorized through the gate against the calling principal.
type Service struct {
	tenants       TenantStore
	plans         PlanStore
	usage         UsageStore
	users         UserStore
	platformUsers PlatformUserStore
	cascade       []TenantScoped

	gate     Gate
	catalog  PermissionCatalog
	sessions SessionRevoker
	tx       tx.Runner

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *tenantmetrics.Metrics
}

func New(stores Stores, gate Gate, catalog PermissionCatalog, opts ...Option) (*Service, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if gate == nil || catalog == nil {
		return nil, errors.New("gate and permission catalog are required")
	}
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = tx.NewMemoryRunner()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		tenants:        stores.Tenants,
		plans:          stores.Plans,
		usage:          stores.Usage,
		users:          stores.Users,
		platformUsers:  stores.PlatformUsers,
		cascade:        cfg.cascade,
		gate:           gate,
		catalog:        catalog,
		sessions:       cfg.sessions,
		tx:             cfg.tx,
		logger:         cfg.logger,
		auditPublisher: cfg.auditPublisher,
		metrics:        cfg.metrics,
	}, nil
}

// PlanLookup resolves a tenant's current plan from persisted state on every
// call. It backs the authorization gate.
type PlanLookup struct {
	tenants TenantStore
	plans   PlanStore
}

func NewPlanLookup(tenants TenantStore, plans PlanStore) *PlanLookup {
	return &PlanLookup{tenants: tenants, plans: plans}
}

func (l *PlanLookup) CurrentPlan(ctx context.Context, tenantID id.TenantID) (*models.Plan, error) {
	tenant, err := l.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err, "failed to load tenant")
	}
	plan, err := l.plans.FindByID(ctx, tenant.PlanID)
	if err != nil {
		return nil, wrapPlanErr(err, "failed to load plan")
	}
	return plan, nil
}
