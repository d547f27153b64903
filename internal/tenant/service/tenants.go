package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
)

// UsageView pairs a counter with the plan's limit for the current period.
type UsageView struct {
	Used   int64  `json:"used"`
	Limit  int64  `json:"limit"`
	Period string `json:"period,omitempty"`
}

// TenantDetails is the admin read model of a tenant.
type TenantDetails struct {
	Tenant *models.Tenant
	Plan   *models.Plan
	Usage  map[models.LimitKey]UsageView
}

// CreateTenant registers a pending tenant on the named plan.
func (s *Service) CreateTenant(ctx context.Context, p *authModels.Principal, cmd CreateTenantCommand) (*models.Tenant, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapTenantsManage}); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var tenant *models.Tenant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		plan, err := s.plans.FindBySlug(txCtx, cmd.PlanSlug)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeValidation, "unknown plan "+cmd.PlanSlug)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan")
		}
		t, err := models.NewTenant(id.TenantID(uuid.New()), cmd.Name, cmd.Slug, plan.ID, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.tenants.Create(txCtx, t); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "tenant slug already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
		}
		tenant = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTenantCreated()
	s.emit(ctx, p, audit.Event{Action: audit.ActionTenantCreated, TenantID: tenant.ID.String(), TargetID: tenant.ID.String()})
	return tenant, nil
}

func (s *Service) ListTenants(ctx context.Context, p *authModels.Principal) ([]*models.Tenant, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapTenantsManage}); err != nil {
		return nil, err
	}
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return tenants, nil
}

// GetTenant returns the tenant with its plan and current usage.
func (s *Service) GetTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*TenantDetails, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapTenantsManage}); err != nil {
		return nil, err
	}
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err, "failed to load tenant")
	}
	plan, err := s.plans.FindByID(ctx, tenant.PlanID)
	if err != nil {
		return nil, wrapPlanErr(err, "failed to load plan")
	}

	now := requestcontext.Now(ctx)
	usage := make(map[models.LimitKey]UsageView, 3)
	for _, key := range []models.LimitKey{models.LimitMaxUsers, models.LimitMaxVenues, models.LimitMaxBookingsPerMonth} {
		period := key.Period(now)
		used, err := s.usage.Get(ctx, tenantID, key, period)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load usage")
		}
		usage[key] = UsageView{Used: used, Limit: plan.Limit(key), Period: period}
	}
	return &TenantDetails{Tenant: tenant, Plan: plan, Usage: usage}, nil
}

func (s *Service) ActivateTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*models.Tenant, error) {
	return s.transition(ctx, p, tenantID, (*models.Tenant).Activate)
}

// SuspendTenant blocks the tenant and revokes every session bound to it.
func (s *Service) SuspendTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*models.Tenant, error) {
	return s.transition(ctx, p, tenantID, (*models.Tenant).Suspend)
}

// CancelTenant is terminal. Sessions are revoked as on suspension.
func (s *Service) CancelTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*models.Tenant, error) {
	return s.transition(ctx, p, tenantID, (*models.Tenant).Cancel)
}

func (s *Service) transition(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, apply func(*models.Tenant, time.Time) error) (*models.Tenant, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapTenantsManage}); err != nil {
		return nil, err
	}
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}

	var (
		tenant   *models.Tenant
		previous models.TenantStatus
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.tenants.FindByIDForUpdate(txCtx, tenantID)
		if err != nil {
			return wrapTenantErr(err, "failed to load tenant")
		}
		previous = t.Status
		if err := apply(t, requestcontext.Now(txCtx)); err != nil {
			return asConflict(err)
		}
		if err := s.tenants.UpdateStatus(txCtx, t.ID, t.Status, t.UpdatedAt); err != nil {
			return wrapTenantErr(err, "failed to update tenant")
		}
		tenant = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementStatusChange(string(tenant.Status))
	s.emit(ctx, p, audit.Event{
		Action:   audit.ActionTenantStatusChanged,
		TenantID: tenant.ID.String(),
		TargetID: tenant.ID.String(),
		Decision: string(tenant.Status),
		Reason:   string(previous) + "->" + string(tenant.Status),
	})
	if !tenant.IsActive() {
		s.revokeTenantSessions(ctx, tenant.ID)
	}
	return tenant, nil
}

// ChangePlan moves the tenant to another plan. The gate reads the plan fresh
// on every decision, so the new terms apply from the next request. Usage
// above a lowered limit is kept; only new reservations are refused.
func (s *Service) ChangePlan(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, planID id.PlanID) (*models.Tenant, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapTenantsManage}); err != nil {
		return nil, err
	}
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := requirePlanID(planID); err != nil {
		return nil, err
	}

	var (
		tenant   *models.Tenant
		previous id.PlanID
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.plans.FindByID(txCtx, planID); err != nil {
			return wrapPlanErr(err, "failed to load plan")
		}
		t, err := s.tenants.FindByIDForUpdate(txCtx, tenantID)
		if err != nil {
			return wrapTenantErr(err, "failed to load tenant")
		}
		previous = t.PlanID
		if err := t.ChangePlan(planID, requestcontext.Now(txCtx)); err != nil {
			return asConflict(err)
		}
		if err := s.tenants.UpdatePlan(txCtx, t.ID, t.PlanID, t.UpdatedAt); err != nil {
			return wrapTenantErr(err, "failed to update tenant")
		}
		tenant = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementPlanChange()
	s.emit(ctx, p, audit.Event{
		Action:   audit.ActionPlanChanged,
		TenantID: tenant.ID.String(),
		TargetID: planID.String(),
		Reason:   previous.String() + "->" + planID.String(),
	})
	return tenant, nil
}

// DeleteTenant removes the tenant with its users, usage and every store
// registered through WithCascade. Linked platform users are unlinked, not
// deleted.
func (s *Service) DeleteTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) error {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapTenantsManage}); err != nil {
		return err
	}
	if err := requireTenantID(tenantID); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tenants.Delete(txCtx, tenantID); err != nil {
			return wrapTenantErr(err, "failed to delete tenant")
		}
		if err := s.users.DeleteByTenant(txCtx, tenantID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete tenant users")
		}
		if err := s.usage.DeleteByTenant(txCtx, tenantID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete tenant usage")
		}
		if err := s.platformUsers.UnlinkTenant(txCtx, tenantID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlink platform users")
		}
		for _, store := range s.cascade {
			if err := store.DeleteByTenant(txCtx, tenantID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete tenant data")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, p, audit.Event{Action: audit.ActionTenantDeleted, TenantID: tenantID.String(), TargetID: tenantID.String()})
	s.revokeTenantSessions(ctx, tenantID)
	return nil
}

// RevokeTenantSessions force-signs-out everyone in the tenant.
func (s *Service) RevokeTenantSessions(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (int, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapSessionsRevokeAny}); err != nil {
		return 0, err
	}
	if err := requireTenantID(tenantID); err != nil {
		return 0, err
	}
	if _, err := s.tenants.FindByID(ctx, tenantID); err != nil {
		return 0, wrapTenantErr(err, "failed to load tenant")
	}
	if s.sessions == nil {
		return 0, dErrors.New(dErrors.CodeInternal, "session revocation is not configured")
	}
	return s.sessions.RevokeAllForTenant(ctx, tenantID)
}

// revokeTenantSessions runs after the state change has committed. A failure
// is logged only: the resolver rejects sessions of inactive tenants anyway.
func (s *Service) revokeTenantSessions(ctx context.Context, tenantID id.TenantID) {
	if s.sessions == nil {
		return
	}
	if _, err := s.sessions.RevokeAllForTenant(ctx, tenantID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke tenant sessions",
			"tenant_id", tenantID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
