package service

import (
	"fmt"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/secrets"
	"tenantgate/pkg/testutil"
)

func (s *ServiceSuite) TestCreateUser() {
	acme := s.newTenant("acme", s.starter)
	globex := s.newTenant("globex", s.starter)
	admin := s.member(acme, authModels.RoleTenantAdmin)

	user := s.createUser(admin, acme, " Ann@Acme.test ", authModels.RoleTenantStaff, authModels.RoleTenantStaff)
	s.Equal("ann@acme.test", user.Email)
	s.Equal(acme.ID, user.TenantID)
	s.Equal([]authModels.Role{authModels.RoleTenantStaff}, user.Roles)
	s.True(user.Active)
	s.True(secrets.VerifyPassword(testPassword, user.PasswordHash))
	s.Equal(int64(1), s.usedUsers(acme))
	s.Contains(s.auditSink.Actions(), audit.ActionUserCreated)

	s.Run("duplicate email rolls the reservation back", func() {
		_, err := s.service.CreateUser(s.ctx, admin, acme.ID, CreateUserCommand{
			Email:    "ann@acme.test",
			Password: testPassword,
			Roles:    []authModels.Role{authModels.RoleTenantStaff},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(int64(1), s.usedUsers(acme))
	})

	s.Run("same email in another tenant is fine", func() {
		s.createUser(s.member(globex, authModels.RoleTenantAdmin), globex, "ann@acme.test", authModels.RoleTenantStaff)
	})

	s.Run("cross tenant", func() {
		_, err := s.service.CreateUser(s.ctx, s.member(globex, authModels.RoleTenantAdmin), acme.ID, CreateUserCommand{
			Email:    "eve@globex.test",
			Password: testPassword,
			Roles:    []authModels.Role{authModels.RoleTenantStaff},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))
		s.Equal(int64(1), s.usedUsers(acme))
	})

	s.Run("staff cannot create users", func() {
		_, err := s.service.CreateUser(s.ctx, s.member(acme, authModels.RoleTenantStaff), acme.ID, CreateUserCommand{
			Email:    "dan@acme.test",
			Password: testPassword,
			Roles:    []authModels.Role{authModels.RoleTenantStaff},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		s.Equal(dErrors.ReasonMissingPermission, dErrors.ReasonOf(err))
	})

	s.Run("roles beyond the caller's own are refused", func() {
		delegate := s.member(acme, authModels.RoleTenantStaff)
		delegate.Permissions = s.catalog.Permissions(delegate.Roles, []string{string(authz.CapUsersCreate)})

		_, err := s.service.CreateUser(s.ctx, delegate, acme.ID, CreateUserCommand{
			Email:    "mia@acme.test",
			Password: testPassword,
			Roles:    []authModels.Role{authModels.RoleTenantManager},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

		s.createUser(delegate, acme, "mia@acme.test", authModels.RoleTenantStaff)
	})

	s.Run("invalid input", func() {
		cases := map[string]CreateUserCommand{
			"bad email":      {Email: "nope", Password: testPassword, Roles: []authModels.Role{authModels.RoleTenantStaff}},
			"short password": {Email: "x@acme.test", Password: "short", Roles: []authModels.Role{authModels.RoleTenantStaff}},
			"no roles":       {Email: "x@acme.test", Password: testPassword},
			"platform role":  {Email: "x@acme.test", Password: testPassword, Roles: []authModels.Role{authModels.RoleSuperAdmin}},
		}
		for name, cmd := range cases {
			_, err := s.service.CreateUser(s.ctx, admin, acme.ID, cmd)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), name)
		}
	})
}

func (s *ServiceSuite) TestCreateUserInCancelledTenant() {
	acme := s.newTenant("acme", s.starter)
	admin := s.superAdmin()
	_, err := s.service.CancelTenant(s.ctx, admin, acme.ID)
	s.Require().NoError(err)

	_, err = s.service.CreateUser(s.ctx, admin, acme.ID, CreateUserCommand{
		Email:    "ann@acme.test",
		Password: testPassword,
		Roles:    []authModels.Role{authModels.RoleTenantStaff},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Zero(s.usedUsers(acme))
}

func (s *ServiceSuite) TestConcurrentCreateUserAtLimit() {
	acme := s.newTenant("acme", s.starter)
	admin := s.member(acme, authModels.RoleTenantAdmin)
	s.createUser(admin, acme, "ann@acme.test", authModels.RoleTenantStaff)
	s.createUser(admin, acme, "bob@acme.test", authModels.RoleTenantStaff)

	const goroutines = 10
	result := testutil.RunConcurrent(goroutines, func(i int) error {
		_, err := s.service.CreateUser(s.ctx, admin, acme.ID, CreateUserCommand{
			Email:    fmt.Sprintf("user%d@acme.test", i),
			Password: testPassword,
			Roles:    []authModels.Role{authModels.RoleTenantStaff},
		})
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(goroutines-1), result.LimitExceeded)
	s.Zero(result.Errors)

	users, err := s.users.ListByTenant(s.ctx, acme.ID)
	s.Require().NoError(err)
	s.Len(users, 3)
	s.Equal(int64(3), s.usedUsers(acme))
}

func (s *ServiceSuite) TestDeleteUser() {
	acme := s.newTenant("acme", s.starter)
	globex := s.newTenant("globex", s.starter)
	admin := s.member(acme, authModels.RoleTenantAdmin)
	ann := s.createUser(admin, acme, "ann@acme.test", authModels.RoleTenantStaff)
	cat := s.createUser(s.superAdmin(), globex, "cat@globex.test", authModels.RoleTenantStaff)

	s.Require().NoError(s.service.DeleteUser(s.ctx, admin, acme.ID, ann.ID))
	s.Zero(s.usedUsers(acme), "allowance is returned")
	s.Equal([]id.SubjectID{id.SubjectID(ann.ID)}, s.revoker.subjects)
	s.Contains(s.auditSink.Actions(), audit.ActionUserDeleted)

	s.Run("already deleted", func() {
		err := s.service.DeleteUser(s.ctx, admin, acme.ID, ann.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("user of another tenant through the wrong path", func() {
		err := s.service.DeleteUser(s.ctx, s.superAdmin(), acme.ID, cat.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(int64(1), s.usedUsers(globex))
	})

	s.Run("cross tenant", func() {
		err := s.service.DeleteUser(s.ctx, admin, globex.ID, cat.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))
	})

	s.Run("self", func() {
		self := s.createUser(admin, acme, "bob@acme.test", authModels.RoleTenantAdmin)
		p := s.member(acme, authModels.RoleTenantAdmin)
		p.SubjectID = id.SubjectID(self.ID)
		err := s.service.DeleteUser(s.ctx, p, acme.ID, self.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestUpdateUser() {
	acme := s.newTenant("acme", s.starter)
	globex := s.newTenant("globex", s.starter)
	admin := s.member(acme, authModels.RoleTenantAdmin)
	ann := s.createUser(admin, acme, "ann@acme.test", authModels.RoleTenantStaff)

	updated, err := s.service.UpdateUser(s.ctx, admin, acme.ID, ann.ID, UpdateUserCommand{
		Permissions: []string{"venues.create", " audit_logs.read ", "venues.create"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"audit_logs.read", "venues.create"}, updated.ExplicitPermissions)
	s.Equal([]authModels.Role{authModels.RoleTenantStaff}, updated.Roles, "roles are kept when omitted")
	s.Contains(s.auditSink.Actions(), audit.ActionUserUpdated)

	stored, err := s.users.FindByID(s.ctx, acme.ID, ann.ID)
	s.Require().NoError(err)
	s.Equal(updated.ExplicitPermissions, stored.ExplicitPermissions)
	s.Empty(s.revoker.subjects, "sessions survive an access change")

	s.Run("roles alone keep the grants", func() {
		u, err := s.service.UpdateUser(s.ctx, admin, acme.ID, ann.ID, UpdateUserCommand{
			Roles: []authModels.Role{authModels.RoleTenantManager},
		})
		s.Require().NoError(err)
		s.Equal([]authModels.Role{authModels.RoleTenantManager}, u.Roles)
		s.Equal([]string{"audit_logs.read", "venues.create"}, u.ExplicitPermissions)
	})

	s.Run("empty grants clear them", func() {
		u, err := s.service.UpdateUser(s.ctx, admin, acme.ID, ann.ID, UpdateUserCommand{Permissions: []string{}})
		s.Require().NoError(err)
		s.Empty(u.ExplicitPermissions)
	})

	s.Run("platform and unknown capabilities are rejected", func() {
		for _, name := range []string{"tenants.manage", "plans.manage", "users.fly"} {
			_, err := s.service.UpdateUser(s.ctx, admin, acme.ID, ann.ID, UpdateUserCommand{Permissions: []string{name}})
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), name)
		}
	})

	s.Run("callers cannot grant what they do not hold", func() {
		_, err := s.service.UpdateUser(s.ctx, admin, acme.ID, ann.ID, UpdateUserCommand{
			Permissions: []string{"portal.bookings.read"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

		delegate := s.member(acme, authModels.RoleTenantStaff)
		delegate.Permissions = s.catalog.Permissions(delegate.Roles, []string{"users.update"})
		_, err = s.service.UpdateUser(s.ctx, delegate, acme.ID, ann.ID, UpdateUserCommand{
			Permissions: []string{"users.delete"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		_, err = s.service.UpdateUser(s.ctx, delegate, acme.ID, ann.ID, UpdateUserCommand{
			Roles: []authModels.Role{authModels.RoleTenantAdmin},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

		_, err = s.service.UpdateUser(s.ctx, delegate, acme.ID, ann.ID, UpdateUserCommand{
			Permissions: []string{"bookings.read"},
		})
		s.NoError(err, "grants the caller holds are fine")
	})

	s.Run("managers cannot update users", func() {
		_, err := s.service.UpdateUser(s.ctx, s.member(acme, authModels.RoleTenantManager), acme.ID, ann.ID, UpdateUserCommand{
			Permissions: []string{"bookings.read"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		s.Equal(dErrors.ReasonMissingPermission, dErrors.ReasonOf(err))
	})

	s.Run("cross tenant", func() {
		_, err := s.service.UpdateUser(s.ctx, s.member(globex, authModels.RoleTenantAdmin), acme.ID, ann.ID, UpdateUserCommand{
			Permissions: []string{"bookings.read"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))
	})

	s.Run("user of another tenant is not found", func() {
		_, err := s.service.UpdateUser(s.ctx, s.member(globex, authModels.RoleTenantAdmin), globex.ID, ann.ID, UpdateUserCommand{
			Permissions: []string{"bookings.read"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("nothing to change", func() {
		_, err := s.service.UpdateUser(s.ctx, admin, acme.ID, ann.ID, UpdateUserCommand{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestListUsers() {
	acme := s.newTenant("acme", s.starter)
	globex := s.newTenant("globex", s.starter)
	s.createUser(s.superAdmin(), acme, "ann@acme.test", authModels.RoleTenantStaff)
	s.createUser(s.superAdmin(), globex, "cat@globex.test", authModels.RoleTenantStaff)

	users, err := s.service.ListUsers(s.ctx, s.member(acme, authModels.RoleTenantStaff), acme.ID)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("ann@acme.test", users[0].Email)

	_, err = s.service.ListUsers(s.ctx, s.member(acme, authModels.RoleTenantStaff), globex.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))

	_, err = s.service.ListUsers(s.ctx, &authModels.Principal{
		Kind:        authModels.SubjectCustomer,
		TenantID:    id.TenantRef(acme.ID),
		Roles:       []authModels.Role{authModels.RoleCustomer},
		Permissions: s.catalog.Permissions([]authModels.Role{authModels.RoleCustomer}, nil),
	}, acme.ID)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied), "customers never see staff")
}

func (s *ServiceSuite) TestPlans() {
	admin := s.superAdmin()

	plan, err := s.service.CreatePlan(s.ctx, admin, PlanCommand{
		Slug:     "Enterprise",
		Name:     "Enterprise",
		Limits:   map[models.LimitKey]int64{models.LimitMaxUsers: models.Unlimited, models.LimitMaxVenues: 50},
		Features: map[models.Feature]bool{models.FeatureAIAnalytics: true},
	})
	s.Require().NoError(err)
	s.Equal("enterprise", plan.Slug)
	s.Equal(int64(50), plan.Limit(models.LimitMaxVenues))
	s.True(plan.HasFeature(models.FeatureAIAnalytics))

	_, err = s.service.CreatePlan(s.ctx, admin, PlanCommand{Slug: "enterprise", Name: "Again"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	updated, err := s.service.UpdatePlan(s.ctx, admin, plan.ID, PlanCommand{
		Name:   "Enterprise II",
		Limits: map[models.LimitKey]int64{models.LimitMaxVenues: 100},
	})
	s.Require().NoError(err)
	s.Equal("Enterprise II", updated.Name)
	s.Equal(int64(100), updated.Limit(models.LimitMaxVenues))
	s.Zero(updated.Limit(models.LimitMaxUsers), "absent limits allow nothing")
	s.False(updated.HasFeature(models.FeatureAIAnalytics))

	plans, err := s.service.ListPlans(s.ctx, admin)
	s.Require().NoError(err)
	s.Len(plans, 3)

	s.Run("invalid terms", func() {
		_, err := s.service.CreatePlan(s.ctx, admin, PlanCommand{
			Slug:   "broken",
			Name:   "Broken",
			Limits: map[models.LimitKey]int64{models.LimitMaxUsers: -5},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.CreatePlan(s.ctx, admin, PlanCommand{Slug: "broken", Name: "Broken", Features: map[models.Feature]bool{"teleport": true}})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown plan", func() {
		_, err := s.service.UpdatePlan(s.ctx, admin, id.PlanID(s.newTenant("acme", s.pro).ID), PlanCommand{Name: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("only super admins manage plans", func() {
		tenant := s.newTenant("globex", s.pro)
		_, err := s.service.ListPlans(s.ctx, s.member(tenant, authModels.RoleTenantAdmin))
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
}
