package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/auth/models"
	"tenantgate/internal/platform/config"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tracer"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

// devOverrideNamespace derives stable subject IDs for override identifiers.
var devOverrideNamespace = uuid.MustParse("6f1d0c7e-2a43-4c55-9a7e-3f0b5d8e9c21")

// Resolve turns request credentials into a Principal. Every failure to
// establish identity is Unauthenticated; only infrastructure faults are
// reported as Internal.
func (s *Service) Resolve(ctx context.Context, creds models.Credentials) (*models.Principal, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "auth.resolve", tracer.String("credential", string(creds.Kind)))

	p, err := s.resolve(ctx, creds)
	if err == nil {
		span.SetAttributes(tracer.String("subject_kind", string(p.Kind)))
	}
	span.End(err)

	s.metrics.ObserveResolveDuration(string(creds.Kind), float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.metrics.IncrementAuthFailures(string(creds.Kind))
		return nil, err
	}
	return p, nil
}

func (s *Service) resolve(ctx context.Context, creds models.Credentials) (*models.Principal, error) {
	if strings.TrimSpace(creds.Token) == "" {
		return nil, unauthenticated("missing credentials")
	}
	switch creds.Kind {
	case models.CredentialSession:
		return s.resolveSession(ctx, creds.Token)
	case models.CredentialBearer:
		return s.resolveBearer(ctx, creds.Token)
	case models.CredentialDevOverride:
		return s.resolveDevOverride(ctx, creds.Token)
	default:
		return nil, unauthenticated("unsupported credential kind")
	}
}

func (s *Service) resolveSession(ctx context.Context, token string) (*models.Principal, error) {
	session, err := s.sessions.FindByTokenHash(ctx, secrets.HashToken(token))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, unauthenticated("session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if err := requireActive(ctx, session); err != nil {
		return nil, err
	}
	return s.principalForSession(ctx, session)
}

func (s *Service) resolveBearer(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, unauthenticated("invalid session reference")
	}

	// Revocation must be visible immediately, so the session is read on every request.
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, unauthenticated("session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if err := requireActive(ctx, session); err != nil {
		return nil, err
	}
	if claims.Subject != session.SubjectID.String() || claims.Kind != string(session.SubjectKind) {
		return nil, unauthenticated("token does not match session")
	}

	p, err := s.principalForSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(p.ExpiresAt) {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// resolveDevOverride accepts "role" or "role@tenant-slug" overrides from
// configuration. Outside development it fails whatever the input.
func (s *Service) resolveDevOverride(ctx context.Context, identifier string) (*models.Principal, error) {
	if s.environment != config.EnvDevelopment {
		s.logger.WarnContext(ctx, "dev override rejected outside development",
			"event", "auth_failed",
			"reason", "dev_override_disabled",
			"environment", s.environment,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, unauthenticated("dev override is disabled")
	}
	target, ok := s.devOverrides[identifier]
	if !ok {
		return nil, unauthenticated("unknown dev override")
	}

	roleName, slug, _ := strings.Cut(target, "@")
	role := models.Role(strings.TrimSpace(roleName))
	if !role.IsValid() {
		return nil, unauthenticated("dev override names an unknown role")
	}

	now := requestcontext.Now(ctx)
	p := &models.Principal{
		SubjectID: id.SubjectID(uuid.NewSHA1(devOverrideNamespace, []byte(identifier))),
		Kind:      models.SubjectDevOverride,
		Email:     identifier,
		Roles:     []models.Role{role},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	}

	slug = strings.TrimSpace(slug)
	switch {
	case slug != "":
		tenant, err := s.tenants.FindBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, unauthenticated("dev override tenant not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
		}
		if !tenant.IsActive() {
			return nil, unauthenticated("tenant is not active")
		}
		p.TenantID = id.TenantRef(tenant.ID)
	case role.IsTenantUserRole() || role == models.RoleCustomer:
		return nil, unauthenticated("dev override role requires a tenant")
	}

	p.Permissions = s.catalog.Permissions(p.Roles, nil)
	s.logger.InfoContext(ctx, "dev override principal resolved",
		"identifier", identifier,
		"role", string(role),
		"request_id", requestcontext.RequestID(ctx),
	)
	return p, nil
}

// principalForSession reloads the subject behind a session so that role
// changes and deactivations take effect on the next request.
func (s *Service) principalForSession(ctx context.Context, session *models.Session) (*models.Principal, error) {
	p, err := s.loadSubject(ctx, session.SubjectKind, session.SubjectID, session.TenantID)
	if err != nil {
		return nil, err
	}
	sessionID := session.ID
	p.SessionID = &sessionID
	p.IssuedAt = session.CreatedAt
	p.ExpiresAt = session.ExpiresAt
	return p, nil
}

// loadSubject builds a principal from the subject's own store. A missing or
// inactive subject, or a tenant that is no longer active, is Unauthenticated.
func (s *Service) loadSubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID, tenantID *id.TenantID) (*models.Principal, error) {
	p := &models.Principal{SubjectID: subjectID, Kind: kind}
	var explicit []string

	switch kind {
	case models.SubjectTenantUser:
		if tenantID == nil {
			return nil, unauthenticated("session has no tenant")
		}
		user, err := s.users.FindByID(ctx, *tenantID, id.UserID(subjectID))
		if err != nil {
			return nil, subjectLookupError(err)
		}
		if !user.Active {
			return nil, unauthenticated("account is inactive")
		}
		if err := s.requireActiveTenant(ctx, user.TenantID); err != nil {
			return nil, err
		}
		p.TenantID = id.TenantRef(user.TenantID)
		p.Email = user.Email
		p.Roles = user.Roles
		explicit = user.ExplicitPermissions

	case models.SubjectCustomer:
		if tenantID == nil {
			return nil, unauthenticated("session has no tenant")
		}
		customer, err := s.customers.FindByID(ctx, *tenantID, id.CustomerID(subjectID))
		if err != nil {
			return nil, subjectLookupError(err)
		}
		if !customer.Active {
			return nil, unauthenticated("account is inactive")
		}
		if err := s.requireActiveTenant(ctx, customer.TenantID); err != nil {
			return nil, err
		}
		p.TenantID = id.TenantRef(customer.TenantID)
		p.Email = customer.Email
		p.Roles = []models.Role{models.RoleCustomer}

	case models.SubjectPlatformUser:
		user, err := s.platformUsers.FindByID(ctx, id.PlatformUserID(subjectID))
		if err != nil {
			return nil, subjectLookupError(err)
		}
		if !user.Active {
			return nil, unauthenticated("account is inactive")
		}
		if user.TenantID != nil {
			if err := s.requireActiveTenant(ctx, *user.TenantID); err != nil {
				return nil, err
			}
			p.TenantID = id.TenantRef(*user.TenantID)
		}
		p.Email = user.Email
		p.Roles = user.Roles
		if len(p.Roles) == 0 {
			p.Roles = []models.Role{models.RolePlatformUser}
		}

	case models.SubjectSuperAdmin:
		admin, err := s.superAdmins.FindByID(ctx, id.AdminID(subjectID))
		if err != nil {
			return nil, subjectLookupError(err)
		}
		if !admin.Active {
			return nil, unauthenticated("account is inactive")
		}
		p.Email = admin.Email
		p.Roles = []models.Role{models.RoleSuperAdmin}

	default:
		return nil, unauthenticated("unknown subject kind")
	}

	p.Permissions = s.catalog.Permissions(p.Roles, explicit)
	return p, nil
}

func (s *Service) requireActiveTenant(ctx context.Context, tenantID id.TenantID) error {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return unauthenticated("tenant not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	if !tenant.IsActive() {
		return unauthenticated("tenant is not active")
	}
	return nil
}

func requireActive(ctx context.Context, session *models.Session) error {
	switch session.StatusAt(requestcontext.Now(ctx)) {
	case models.SessionStatusRevoked:
		return unauthenticated("session revoked")
	case models.SessionStatusExpired:
		return unauthenticated("session expired")
	}
	return nil
}

func subjectLookupError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return unauthenticated("subject not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subject")
}

func unauthenticated(msg string) error {
	return dErrors.New(dErrors.CodeUnauthenticated, msg)
}
