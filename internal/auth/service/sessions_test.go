package service

import (
	"time"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/testutil"
)

func (s *ServiceSuite) TestRefresh() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	login := s.loginUser(acme, "ann@acme.test")

	later := s.at(30 * time.Minute)
	refreshed, err := s.service.Refresh(later, login.SessionToken)
	s.Require().NoError(err)
	s.NotEqual(login.SessionToken, refreshed.SessionToken)
	s.Equal(s.now.Add(90*time.Minute), refreshed.ExpiresAt, "fresh expiry from the refresh time")
	s.Equal(login.Session.SubjectID, refreshed.Session.SubjectID)
	s.Equal(*login.Session.TenantID, *refreshed.Session.TenantID)

	s.Run("old token is dead", func() {
		_, err := s.service.Resolve(later, sessionCreds(login.SessionToken))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("new token works", func() {
		p, err := s.service.Resolve(later, sessionCreds(refreshed.SessionToken))
		s.Require().NoError(err)
		s.Equal(refreshed.Session.ID, *p.SessionID)
	})

	s.Run("replaying the old token fails", func() {
		_, err := s.service.Refresh(later, login.SessionToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	old, err := s.sessions.FindByID(s.ctx, login.Session.ID)
	s.Require().NoError(err)
	s.Require().NotNil(old.ReplacedBy)
	s.Equal(refreshed.Session.ID, *old.ReplacedBy)
	s.Contains(s.auditSink.Actions(), audit.ActionSessionRefreshed)
}

func (s *ServiceSuite) TestRefreshRejects() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	user := s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)

	s.Run("expired session", func() {
		login := s.loginUser(acme, "ann@acme.test")
		_, err := s.service.Refresh(s.at(2*time.Hour), login.SessionToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("revoked session", func() {
		login := s.loginUser(acme, "ann@acme.test")
		s.Require().NoError(s.service.Logout(s.ctx, login.SessionToken))
		_, err := s.service.Refresh(s.ctx, login.SessionToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("unknown and empty tokens", func() {
		for _, token := range []string{"", "nope"} {
			_, err := s.service.Refresh(s.ctx, token)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
		}
	})

	s.Run("subject removed since login", func() {
		login := s.loginUser(acme, "ann@acme.test")
		s.Require().NoError(s.users.Delete(s.ctx, acme.ID, user.ID))
		_, err := s.service.Refresh(s.ctx, login.SessionToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})
}

func (s *ServiceSuite) TestConcurrentRefreshHasOneWinner() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	login := s.loginUser(acme, "ann@acme.test")

	const goroutines = 16
	result := testutil.RunConcurrent(goroutines, func(int) error {
		_, err := s.service.Refresh(s.ctx, login.SessionToken)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(goroutines-1), result.Unauthenticated)
	s.Zero(result.Errors)
}

func (s *ServiceSuite) TestLogoutIsIdempotent() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	login := s.loginUser(acme, "ann@acme.test")

	s.NoError(s.service.Logout(s.ctx, login.SessionToken))
	s.NoError(s.service.Logout(s.ctx, login.SessionToken))
	s.NoError(s.service.Logout(s.ctx, "never-issued"))
	s.NoError(s.service.Logout(s.ctx, ""))

	revoked := 0
	for _, action := range s.auditSink.Actions() {
		if action == audit.ActionSessionRevoked {
			revoked++
		}
	}
	s.Equal(1, revoked, "only the first logout is recorded")
}

func (s *ServiceSuite) TestRevokeAllForTenant() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	globex := s.newTenant("globex", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	s.newUser(acme, "bob@acme.test", models.RoleTenantAdmin)
	s.newUser(globex, "cat@globex.test", models.RoleTenantStaff)

	ann := s.loginUser(acme, "ann@acme.test")
	bob := s.loginUser(acme, "bob@acme.test")
	cat := s.loginUser(globex, "cat@globex.test")

	count, err := s.service.RevokeAllForTenant(s.ctx, acme.ID)
	s.Require().NoError(err)
	s.Equal(2, count)

	for _, login := range []*LoginResult{ann, bob} {
		_, err := s.service.Resolve(s.ctx, sessionCreds(login.SessionToken))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	}
	_, err = s.service.Resolve(s.ctx, sessionCreds(cat.SessionToken))
	s.NoError(err, "other tenants keep their sessions")

	again, err := s.service.RevokeAllForTenant(s.ctx, acme.ID)
	s.Require().NoError(err)
	s.Zero(again)

	_, err = s.service.RevokeAllForTenant(s.ctx, id.TenantID{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestRevokeAllForSubject() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	user := s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)
	s.newUser(acme, "bob@acme.test", models.RoleTenantStaff)
	first := s.loginUser(acme, "ann@acme.test")
	second := s.loginUser(acme, "ann@acme.test")
	bob := s.loginUser(acme, "bob@acme.test")

	count, err := s.service.RevokeAllForSubject(s.ctx, models.SubjectTenantUser, id.SubjectID(user.ID))
	s.Require().NoError(err)
	s.Equal(2, count)

	for _, login := range []*LoginResult{first, second} {
		_, err := s.service.Resolve(s.ctx, sessionCreds(login.SessionToken))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	}
	_, err = s.service.Resolve(s.ctx, sessionCreds(bob.SessionToken))
	s.NoError(err)
	s.Contains(s.auditSink.Actions(), audit.ActionSessionsRevoked)
}

func (s *ServiceSuite) TestListSessions() {
	acme := s.newTenant("acme", tenantModels.TenantStatusActive)
	s.newUser(acme, "ann@acme.test", models.RoleTenantStaff)

	first := s.loginUser(acme, "ann@acme.test")
	second, err := s.service.Login(s.at(time.Minute), LoginRequest{
		Kind:       models.SubjectTenantUser,
		TenantSlug: "acme",
		Email:      "ann@acme.test",
		Password:   testPassword,
		UserAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1",
	})
	s.Require().NoError(err)
	s.Require().NoError(s.service.Logout(s.ctx, first.SessionToken))

	ctx := s.at(2 * time.Minute)
	p, err := s.service.Resolve(ctx, sessionCreds(second.SessionToken))
	s.Require().NoError(err)

	views, err := s.service.ListSessions(ctx, p)
	s.Require().NoError(err)
	s.Require().Len(views, 2)

	s.Equal(second.Session.ID, views[0].ID)
	s.True(views[0].Current)
	s.Equal(models.SessionStatusActive, views[0].Status)
	s.Contains(views[0].DeviceDisplayName, "iPhone")

	s.Equal(first.Session.ID, views[1].ID)
	s.False(views[1].Current)
	s.Equal(models.SessionStatusRevoked, views[1].Status)
	s.NotNil(views[1].RevokedAt)

	s.Run("dev overrides have no sessions", func() {
		p, err := s.service.Resolve(s.ctx, models.Credentials{Kind: models.CredentialDevOverride, Token: "dev-admin"})
		s.Require().NoError(err)
		views, err := s.service.ListSessions(s.ctx, p)
		s.Require().NoError(err)
		s.Empty(views)
	})
}
