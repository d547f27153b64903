package service

import (
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/platform/config"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestResolveSession() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.Require().NoError(s.users.Create(s.ctx, &models.TenantUser{
		ID:                  id.UserID(uuid.New()),
		TenantID:            acme.ID,
		Email:               "ann@acme.test",
		PasswordHash:        passwordHash,
		Roles:               []models.Role{models.RoleTenantManager},
		ExplicitPermissions: []string{string(authz.CapAuditLogsRead), string(authz.CapTenantsManage)},
		Active:              true,
	}))
	login := s.loginUser(acme, "ann@acme.test")

	s.Run("active session resolves a fresh principal", func() {
		p, err := s.service.Resolve(s.ctx, sessionCreds(login.SessionToken))
		s.Require().NoError(err)
		s.Equal(models.SubjectTenantUser, p.Kind)
		s.Equal(acme.ID, *p.TenantID)
		s.Equal(login.Session.ID, *p.SessionID)
		s.True(p.HasPermission(string(authz.CapVenuesCreate)))
		s.True(p.HasPermission(string(authz.CapBookingsRead)), "inherited from staff")
		s.True(p.HasPermission(string(authz.CapAuditLogsRead)), "explicit grant")
		s.False(p.HasPermission(string(authz.CapTenantsManage)), "explicit grants never reach platform capabilities")
		s.False(p.HasPermission(string(authz.CapUsersCreate)))
	})

	s.Run("unknown token", func() {
		_, err := s.service.Resolve(s.ctx, sessionCreds("not-a-real-token"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("expired session", func() {
		_, err := s.service.Resolve(s.at(2*time.Hour), sessionCreds(login.SessionToken))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("empty credentials", func() {
		_, err := s.service.Resolve(s.ctx, sessionCreds("  "))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})
}

func (s *ServiceSuite) TestResolveRejectsRevokedSession() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	login := s.loginUser(acme, "ann@acme.test")

	s.Require().NoError(s.service.Logout(s.ctx, login.SessionToken))

	_, err := s.service.Resolve(s.ctx, sessionCreds(login.SessionToken))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))

	_, err = s.service.Resolve(s.ctx, bearerCreds(login.AccessToken))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated), "bearer tokens die with their session")
}

func (s *ServiceSuite) TestResolveBearer() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantAdmin)
	login := s.loginUser(acme, "ann@acme.test")

	s.Run("valid token", func() {
		p, err := s.service.Resolve(s.ctx, bearerCreds(login.AccessToken))
		s.Require().NoError(err)
		s.True(p.HasRole(models.RoleTenantAdmin))
		s.Equal(login.AccessTokenExpiresAt.Unix(), p.ExpiresAt.Unix())
	})

	s.Run("expired token", func() {
		_, err := s.service.Resolve(s.at(20*time.Minute), bearerCreds(login.AccessToken))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("token signed with another key", func() {
		other := NewTokenIssuer("some-other-key-of-sufficient-length!", "tenantgate", "tenantgate-api", time.Minute)
		forged, _, err := other.Issue(s.ctx, login.Session, []models.Role{models.RoleSuperAdmin})
		s.Require().NoError(err)
		_, err = s.service.Resolve(s.ctx, bearerCreds(forged))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("embedded roles are not trusted", func() {
		inflated, _, err := s.tokens.Issue(s.ctx, login.Session, []models.Role{models.RoleSuperAdmin})
		s.Require().NoError(err)
		p, err := s.service.Resolve(s.ctx, bearerCreds(inflated))
		s.Require().NoError(err)
		s.False(p.IsSuperAdmin())
		s.Equal([]models.Role{models.RoleTenantAdmin}, p.Roles)
	})
}

func (s *ServiceSuite) TestResolveReloadsSubject() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	user := s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	login := s.loginUser(acme, "ann@acme.test")

	s.Run("suspended tenant", func() {
		s.Require().NoError(s.tenants.UpdateStatus(s.ctx, acme.ID, tenantModels.TenantStatusSuspended, s.now))
		defer func() { s.Require().NoError(s.tenants.UpdateStatus(s.ctx, acme.ID, acme.Status, s.now)) }()

		_, err := s.service.Resolve(s.ctx, sessionCreds(login.SessionToken))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("deleted user", func() {
		s.Require().NoError(s.users.Delete(s.ctx, acme.ID, user.ID))
		_, err := s.service.Resolve(s.ctx, sessionCreds(login.SessionToken))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated), "never internal")
	})
}

func (s *ServiceSuite) TestResolveDevOverride() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	override := func(ident string) models.Credentials {
		return models.Credentials{Kind: models.CredentialDevOverride, Token: ident}
	}

	s.Run("tenant role bound to a tenant", func() {
		p, err := s.service.Resolve(s.ctx, override("dev-admin"))
		s.Require().NoError(err)
		s.Equal(models.SubjectDevOverride, p.Kind)
		s.Equal(acme.ID, *p.TenantID)
		s.True(p.HasPermission(string(authz.CapUsersCreate)))
		s.False(p.IsSuperAdmin())
	})

	s.Run("super admin override", func() {
		p, err := s.service.Resolve(s.ctx, override("dev-root"))
		s.Require().NoError(err)
		s.True(p.IsSuperAdmin())
		s.Nil(p.TenantID)
	})

	s.Run("stable subject per identifier", func() {
		a, err := s.service.Resolve(s.ctx, override("dev-admin"))
		s.Require().NoError(err)
		b, err := s.service.Resolve(s.ctx, override("dev-admin"))
		s.Require().NoError(err)
		s.Equal(a.SubjectID, b.SubjectID)
	})

	for name, ident := range map[string]string{
		"not configured":         "dev-nobody",
		"tenant role, no tenant": "dev-orphan",
		"unknown tenant":         "dev-ghost",
		"unknown role":           "dev-unknown",
	} {
		s.Run(name, func() {
			_, err := s.service.Resolve(s.ctx, override(ident))
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
		})
	}
}

func (s *ServiceSuite) TestDevOverrideRejectedOutsideDevelopment() {
	s.newTenant("acme", tenantModels.TenantStatusActive)
	overrides := map[string]string{"dev-root": "super_admin", "dev-admin": "tenant_admin@acme"}

	for _, env := range []string{config.EnvProduction, config.EnvTest, ""} {
		svc := s.newService(WithDevOverrides(env, overrides))
		for ident := range overrides {
			p, err := svc.Resolve(s.ctx, models.Credentials{Kind: models.CredentialDevOverride, Token: ident})
			s.Nil(p)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated), "env %q ident %q", env, ident)
		}
	}
}

func (s *ServiceSuite) TestResolveSuperAdminAndCustomer() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newSuperAdmin("root@tenantgate.test")
	s.newCustomer(acme, "buyer@example.test")

	admin, err := s.service.Login(s.ctx, LoginRequest{Kind: models.SubjectSuperAdmin, Email: "root@tenantgate.test", Password: testPassword})
	s.Require().NoError(err)
	p, err := s.service.Resolve(s.ctx, sessionCreds(admin.SessionToken))
	s.Require().NoError(err)
	s.True(p.IsSuperAdmin())
	s.Nil(p.TenantID)
	for _, c := range authz.AllCapabilities() {
		s.True(p.HasPermission(string(c)), c)
	}

	customer, err := s.service.Login(s.ctx, LoginRequest{Kind: models.SubjectCustomer, TenantSlug: "acme", Email: "buyer@example.test", Password: testPassword})
	s.Require().NoError(err)
	p, err = s.service.Resolve(s.ctx, sessionCreds(customer.SessionToken))
	s.Require().NoError(err)
	s.Equal([]models.Role{models.RoleCustomer}, p.Roles)
	s.True(p.HasPermission(string(authz.CapPortalBookingsRead)))
	s.False(p.HasPermission(string(authz.CapBookingsRead)))
}
