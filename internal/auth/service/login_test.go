package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/models"
	"tenantgate/internal/auth/ratelimit"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestLoginSharedEmailAcrossTenants() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	globex := s.newTenant("globex", tenantModels.TenantStatusActive)
	atAcme := s.newUser(acme, "sam@shared.test", models.RoleTenantAdmin)
	atGlobex := s.newUser(globex, "sam@shared.test", models.RoleTenantStaff)

	acmeLogin := s.loginUser(acme, "sam@shared.test")
	globexLogin := s.loginUser(globex, "SAM@shared.test ")

	s.Equal(atAcme.ID.String(), acmeLogin.Session.SubjectID.String())
	s.Equal(acme.ID, *acmeLogin.Session.TenantID)
	s.Equal(atGlobex.ID.String(), globexLogin.Session.SubjectID.String())
	s.Equal(globex.ID, *globexLogin.Session.TenantID)

	p, err := s.service.Resolve(s.ctx, sessionCreds(globexLogin.SessionToken))
	s.Require().NoError(err)
	s.Equal([]models.Role{models.RoleTenantStaff}, p.Roles)
}

func (s *ServiceSuite) TestLoginInvalidCredentials() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	s.Require().NoError(s.users.Create(s.ctx, &models.TenantUser{
		ID:           id.UserID(uuid.New()),
		TenantID:     acme.ID,
		Email:        "gone@acme.test",
		PasswordHash: passwordHash,
		Roles:        []models.Role{models.RoleTenantStaff},
	}))
	s.newTenant("globex", tenantModels.TenantStatusActive)

	cases := map[string]LoginRequest{
		"wrong password":      {Kind: models.SubjectTenantUser, TenantSlug: "acme", Email: "ann@acme.test", Password: "nope"},
		"unknown email":       {Kind: models.SubjectTenantUser, TenantSlug: "acme", Email: "who@acme.test", Password: testPassword},
		"unknown tenant":      {Kind: models.SubjectTenantUser, TenantSlug: "initech", Email: "ann@acme.test", Password: testPassword},
		"other tenant's user": {Kind: models.SubjectTenantUser, TenantSlug: "globex", Email: "ann@acme.test", Password: testPassword},
		"inactive account":    {Kind: models.SubjectTenantUser, TenantSlug: "acme", Email: "gone@acme.test", Password: testPassword},
		"user as customer":    {Kind: models.SubjectCustomer, TenantSlug: "acme", Email: "ann@acme.test", Password: testPassword},
		"user as super admin": {Kind: models.SubjectSuperAdmin, Email: "ann@acme.test", Password: testPassword},
	}
	for name, req := range cases {
		s.Run(name, func() {
			res, err := s.service.Login(s.ctx, req)
			s.Nil(res)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials), "got %v", err)
			s.Equal("invalid credentials", err.Error())
		})
	}
	s.Contains(s.auditSink.Actions(), audit.ActionLoginFailed)
}

func (s *ServiceSuite) TestLoginInactiveTenant() {
	pending := s.newTenant("pending-co", tenantModels.TenantStatusPending)
	s.newUser(pending, "ann@pending.test", models.RoleTenantAdmin)

	s.Run("correct credentials reveal the tenant state", func() {
		_, err := s.service.Login(s.ctx, LoginRequest{
			Kind: models.SubjectTenantUser, TenantSlug: "pending-co", Email: "ann@pending.test", Password: testPassword,
		})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		s.Equal(dErrors.ReasonTenantInactive, dErrors.ReasonOf(err))
	})

	s.Run("wrong credentials do not", func() {
		_, err := s.service.Login(s.ctx, LoginRequest{
			Kind: models.SubjectTenantUser, TenantSlug: "pending-co", Email: "ann@pending.test", Password: "wrong",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})
}

func (s *ServiceSuite) TestLoginValidation() {
	cases := map[string]LoginRequest{
		"tenant user without slug":  {Kind: models.SubjectTenantUser, Email: "a@b.test", Password: "x"},
		"super admin with slug":     {Kind: models.SubjectSuperAdmin, TenantSlug: "acme", Email: "a@b.test", Password: "x"},
		"platform user by password": {Kind: models.SubjectPlatformUser, Email: "a@b.test", Password: "x"},
		"missing password":          {Kind: models.SubjectSuperAdmin, Email: "a@b.test"},
	}
	for name, req := range cases {
		s.Run(name, func() {
			_, err := s.service.Login(s.ctx, req)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestLoginSession() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)

	res, err := s.service.Login(s.ctx, LoginRequest{
		Kind:       models.SubjectTenantUser,
		TenantSlug: "ACME",
		Email:      "ann@acme.test",
		Password:   testPassword,
		UserAgent:  "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	})
	s.Require().NoError(err)
	s.NotEmpty(res.SessionToken)
	s.NotEmpty(res.AccessToken)
	s.Equal(s.now.Add(s.service.sessionTTL), res.ExpiresAt)
	s.Contains(res.Session.DeviceDisplayName, "Firefox")
	s.NotEqual(res.SessionToken, res.Session.TokenHash, "only the digest is stored")
	s.Contains(s.auditSink.Actions(), audit.ActionLoginSucceeded)
}

func (s *ServiceSuite) TestLoginThrottled() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	svc := s.newService(WithLoginLimiter(ratelimit.New(1, 2)))

	req := LoginRequest{Kind: models.SubjectTenantUser, TenantSlug: "acme", Email: "ann@acme.test", Password: "wrong"}
	for range 2 {
		_, err := svc.Login(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	}

	req.Password = testPassword
	_, err := svc.Login(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))

	// other accounts are unaffected
	s.newUser(acme, "bob@acme.test", models.RoleTenantStaff)
	req.Email = "bob@acme.test"
	_, err = svc.Login(s.ctx, req)
	s.NoError(err)
}

type stubVerifier struct {
	identity *FederatedIdentity
	err      error
}

func (v stubVerifier) Verify(context.Context, string) (*FederatedIdentity, error) {
	return v.identity, v.err
}

func (s *ServiceSuite) TestLoginFederated() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	identity := &FederatedIdentity{Provider: "google", Subject: "g-123", Email: "pat@gmail.test"}
	svc := s.newService(WithFederatedVerifier(stubVerifier{identity: identity}))

	s.Run("first login creates the platform user", func() {
		res, err := svc.LoginFederated(s.ctx, FederatedLoginRequest{Provider: "google", IDToken: "tok"})
		s.Require().NoError(err)
		s.Equal(models.SubjectPlatformUser, res.Session.SubjectKind)
		s.Nil(res.Session.TenantID)

		again, err := svc.LoginFederated(s.ctx, FederatedLoginRequest{Provider: "google", IDToken: "tok"})
		s.Require().NoError(err)
		s.Equal(res.Session.SubjectID, again.Session.SubjectID)
	})

	s.Run("linked tenant is carried into the session", func() {
		user, err := s.platformUsers.FindByProviderSubject(s.ctx, "google", "g-123")
		s.Require().NoError(err)
		linked := *user
		linked.ID = id.PlatformUserID(uuid.New())
		linked.ProviderSubject = "g-456"
		tenantID := acme.ID
		linked.TenantID = &tenantID
		s.Require().NoError(s.platformUsers.Create(s.ctx, &linked))

		svc := s.newService(WithFederatedVerifier(stubVerifier{identity: &FederatedIdentity{Provider: "google", Subject: "g-456"}}))
		res, err := svc.LoginFederated(s.ctx, FederatedLoginRequest{Provider: "google", IDToken: "tok"})
		s.Require().NoError(err)
		s.Equal(acme.ID, *res.Session.TenantID)
	})

	s.Run("provider mismatch", func() {
		_, err := svc.LoginFederated(s.ctx, FederatedLoginRequest{Provider: "firebase", IDToken: "tok"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})

	s.Run("verifier rejects the token", func() {
		svc := s.newService(WithFederatedVerifier(stubVerifier{err: errors.New("bad signature")}))
		_, err := svc.LoginFederated(s.ctx, FederatedLoginRequest{Provider: "google", IDToken: "tok"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})

	s.Run("not configured", func() {
		_, err := s.service.LoginFederated(s.ctx, FederatedLoginRequest{Provider: "google", IDToken: "tok"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
