package service

import (
	"context"
	"time"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
)

// Store interfaces define persistence contracts. Find methods return
// sentinel.ErrNotFound; Create returns sentinel.ErrConflict on a duplicate
// slug or email.

// TenantStore writes status and plan separately. FindByIDForUpdate holds the
// row until the enclosing transaction ends.
type TenantStore interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindByIDForUpdate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	UpdateStatus(ctx context.Context, tenantID id.TenantID, status models.TenantStatus, updatedAt time.Time) error
	UpdatePlan(ctx context.Context, tenantID id.TenantID, planID id.PlanID, updatedAt time.Time) error
	Delete(ctx context.Context, tenantID id.TenantID) error
}

type PlanStore interface {
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	FindByID(ctx context.Context, planID id.PlanID) (*models.Plan, error)
	FindBySlug(ctx context.Context, slug string) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)
}

type UsageStore interface {
	Get(ctx context.Context, tenantID id.TenantID, limit models.LimitKey, period string) (int64, error)
	DeleteByTenant(ctx context.Context, tenantID id.TenantID) error
}

type UserStore interface {
	Create(ctx context.Context, user *authModels.TenantUser) error
	FindByID(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*authModels.TenantUser, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*authModels.TenantUser, error)
	UpdateAccess(ctx context.Context, tenantID id.TenantID, userID id.UserID, roles []authModels.Role, permissions []string, updatedAt time.Time) error
	Delete(ctx context.Context, tenantID id.TenantID, userID id.UserID) error
	DeleteByTenant(ctx context.Context, tenantID id.TenantID) error
}

type PlatformUserStore interface {
	UnlinkTenant(ctx context.Context, tenantID id.TenantID) error
}

// TenantScoped is any store holding tenant-owned rows that must go when the
// tenant is deleted.
type TenantScoped interface {
	DeleteByTenant(ctx context.Context, tenantID id.TenantID) error
}

// SessionRevoker ends sessions when a tenant or user loses access.
type SessionRevoker interface {
	RevokeAllForTenant(ctx context.Context, tenantID id.TenantID) (int, error)
	RevokeAllForSubject(ctx context.Context, kind authModels.SubjectKind, subjectID id.SubjectID) (int, error)
}

type Gate interface {
	Authorize(ctx context.Context, p *authModels.Principal, req authz.CapabilityRequest) error
	Release(ctx context.Context, tenantID id.TenantID, capability authz.Capability, delta int64) error
}

// PermissionCatalog expands roles into capabilities.
type PermissionCatalog interface {
	Permissions(roles []authModels.Role, explicit []string) map[string]struct{}
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
