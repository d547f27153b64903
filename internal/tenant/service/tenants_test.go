package service

import (
	"github.com/google/uuid"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestCreateTenant() {
	admin := s.superAdmin()

	tenant, err := s.service.CreateTenant(s.ctx, admin, CreateTenantCommand{Name: " Acme ", Slug: "Acme", PlanSlug: "starter"})
	s.Require().NoError(err)
	s.Equal("Acme", tenant.Name)
	s.Equal("acme", tenant.Slug)
	s.Equal(models.TenantStatusPending, tenant.Status)
	s.Equal(s.starter.ID, tenant.PlanID)
	s.Contains(s.auditSink.Actions(), audit.ActionTenantCreated)

	s.Run("duplicate slug", func() {
		_, err := s.service.CreateTenant(s.ctx, admin, CreateTenantCommand{Name: "Other", Slug: "acme", PlanSlug: "pro"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown plan", func() {
		_, err := s.service.CreateTenant(s.ctx, admin, CreateTenantCommand{Name: "Globex", Slug: "globex", PlanSlug: "gold"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("malformed slug", func() {
		_, err := s.service.CreateTenant(s.ctx, admin, CreateTenantCommand{Name: "Globex", Slug: "-globex", PlanSlug: "pro"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("tenant admins cannot create tenants", func() {
		_, err := s.service.CreateTenant(s.ctx, s.member(tenant, authModels.RoleTenantAdmin), CreateTenantCommand{Name: "Globex", Slug: "globex", PlanSlug: "pro"})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		s.Equal(dErrors.ReasonMissingPermission, dErrors.ReasonOf(err))
	})
}

func (s *ServiceSuite) TestTenantLifecycle() {
	admin := s.superAdmin()
	tenant, err := s.service.CreateTenant(s.ctx, admin, CreateTenantCommand{Name: "Acme", Slug: "acme", PlanSlug: "starter"})
	s.Require().NoError(err)

	activated, err := s.service.ActivateTenant(s.ctx, admin, tenant.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusActive, activated.Status)
	s.Empty(s.revoker.tenants, "activation revokes nothing")

	_, err = s.service.ActivateTenant(s.ctx, admin, tenant.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "already active")

	suspended, err := s.service.SuspendTenant(s.ctx, admin, tenant.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusSuspended, suspended.Status)
	s.Equal([]id.TenantID{tenant.ID}, s.revoker.tenants)

	_, err = s.service.SuspendTenant(s.ctx, admin, tenant.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	cancelled, err := s.service.CancelTenant(s.ctx, admin, tenant.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusCancelled, cancelled.Status)
	s.Len(s.revoker.tenants, 2)

	_, err = s.service.ActivateTenant(s.ctx, admin, tenant.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "cancelled is terminal")

	stored, err := s.tenants.FindByID(s.ctx, tenant.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusCancelled, stored.Status)

	changes := 0
	for _, action := range s.auditSink.Actions() {
		if action == audit.ActionTenantStatusChanged {
			changes++
		}
	}
	s.Equal(3, changes)

	s.Run("unknown tenant", func() {
		_, err := s.service.SuspendTenant(s.ctx, admin, id.TenantID(s.pro.ID))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("nil tenant", func() {
		_, err := s.service.SuspendTenant(s.ctx, admin, id.TenantID{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestChangePlanAppliesOnNextDecision() {
	admin := s.superAdmin()
	acme := s.newTenant("acme", s.pro)
	tenantAdmin := s.member(acme, authModels.RoleTenantAdmin)
	s.createUser(tenantAdmin, acme, "ann@acme.test", authModels.RoleTenantStaff)
	s.createUser(tenantAdmin, acme, "bob@acme.test", authModels.RoleTenantStaff)

	solo := s.newPlan("solo", map[models.LimitKey]int64{models.LimitMaxUsers: 2}, nil)
	moved, err := s.service.ChangePlan(s.ctx, admin, acme.ID, solo.ID)
	s.Require().NoError(err)
	s.Equal(solo.ID, moved.PlanID)
	s.Contains(s.auditSink.Actions(), audit.ActionPlanChanged)

	_, err = s.service.CreateUser(s.ctx, tenantAdmin, acme.ID, CreateUserCommand{
		Email:    "cat@acme.test",
		Password: testPassword,
		Roles:    []authModels.Role{authModels.RoleTenantStaff},
	})
	s.True(dErrors.HasCode(err, dErrors.CodePlanLimitExceeded))
	s.Equal(int64(2), s.usedUsers(acme), "existing usage is kept")

	s.Run("unknown plan", func() {
		_, err := s.service.ChangePlan(s.ctx, admin, acme.ID, id.PlanID(acme.ID))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("tenant admins cannot change plans", func() {
		_, err := s.service.ChangePlan(s.ctx, tenantAdmin, acme.ID, s.pro.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
}

func (s *ServiceSuite) TestDeleteTenantCascades() {
	admin := s.superAdmin()
	acme := s.newTenant("acme", s.starter)
	globex := s.newTenant("globex", s.starter)
	s.createUser(admin, acme, "ann@acme.test", authModels.RoleTenantAdmin)
	s.createUser(admin, globex, "cat@globex.test", authModels.RoleTenantStaff)

	linked := &authModels.PlatformUser{
		ID:              id.PlatformUserID(uuid.New()),
		Provider:        "google",
		ProviderSubject: "g-1",
		Email:           "pat@example.test",
		TenantID:        id.TenantRef(acme.ID),
		Roles:           []authModels.Role{authModels.RolePlatformUser},
		Active:          true,
	}
	s.Require().NoError(s.platformUsers.Create(s.ctx, linked))

	s.Require().NoError(s.service.DeleteTenant(s.ctx, admin, acme.ID))

	_, err := s.tenants.FindByID(s.ctx, acme.ID)
	s.Error(err)
	users, err := s.users.ListByTenant(s.ctx, acme.ID)
	s.Require().NoError(err)
	s.Empty(users)
	s.Zero(s.usedUsers(acme))

	pu, err := s.platformUsers.FindByID(s.ctx, linked.ID)
	s.Require().NoError(err)
	s.Nil(pu.TenantID, "platform users are unlinked, not deleted")

	s.Equal([]id.TenantID{acme.ID}, s.venues.deleted)
	s.Equal([]id.TenantID{acme.ID}, s.revoker.tenants)
	s.Contains(s.auditSink.Actions(), audit.ActionTenantDeleted)

	others, err := s.users.ListByTenant(s.ctx, globex.ID)
	s.Require().NoError(err)
	s.Len(others, 1, "other tenants are untouched")

	err = s.service.DeleteTenant(s.ctx, admin, acme.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGetTenantReportsUsage() {
	admin := s.superAdmin()
	acme := s.newTenant("acme", s.starter)
	s.createUser(admin, acme, "ann@acme.test", authModels.RoleTenantStaff)

	details, err := s.service.GetTenant(s.ctx, admin, acme.ID)
	s.Require().NoError(err)
	s.Equal(acme.ID, details.Tenant.ID)
	s.Equal(s.starter.ID, details.Plan.ID)
	s.Equal(UsageView{Used: 1, Limit: 3}, details.Usage[models.LimitMaxUsers])
	s.Equal(UsageView{Used: 0, Limit: 0, Period: "2026-04"}, details.Usage[models.LimitMaxBookingsPerMonth])
}

func (s *ServiceSuite) TestRevokeTenantSessions() {
	acme := s.newTenant("acme", s.starter)

	_, err := s.service.RevokeTenantSessions(s.ctx, s.superAdmin(), acme.ID)
	s.Require().NoError(err)
	s.Equal([]id.TenantID{acme.ID}, s.revoker.tenants)

	_, err = s.service.RevokeTenantSessions(s.ctx, s.member(acme, authModels.RoleTenantAdmin), acme.ID)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
}

func (s *ServiceSuite) TestPlanLookupReadsCurrentPlan() {
	acme := s.newTenant("acme", s.starter)
	lookup := NewPlanLookup(s.tenants, s.plans)

	plan, err := lookup.CurrentPlan(s.ctx, acme.ID)
	s.Require().NoError(err)
	s.Equal(s.starter.ID, plan.ID)

	_, err = s.service.ChangePlan(s.ctx, s.superAdmin(), acme.ID, s.pro.ID)
	s.Require().NoError(err)
	plan, err = lookup.CurrentPlan(s.ctx, acme.ID)
	s.Require().NoError(err)
	s.Equal(s.pro.ID, plan.ID)

	_, err = lookup.CurrentPlan(s.ctx, id.TenantID(s.pro.ID))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
