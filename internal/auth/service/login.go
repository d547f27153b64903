package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/device"
	"tenantgate/internal/auth/models"
	"tenantgate/internal/auth/ratelimit"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

// LoginRequest is a password login. Tenant users and customers name their
// tenant by slug; super admins must not.
type LoginRequest struct {
	Kind       models.SubjectKind `json:"kind" validate:"required,oneof=tenant_user customer super_admin"`
	TenantSlug string             `json:"tenant_slug" validate:"omitempty,slug"`
	Email      string             `json:"email" validate:"required,email,max=254"`
	Password   string             `json:"password" validate:"required,max=72"`
	UserAgent  string             `json:"-"`
}

type FederatedLoginRequest struct {
	Provider  string `json:"provider" validate:"required"`
	IDToken   string `json:"id_token" validate:"required"`
	UserAgent string `json:"-"`
}

// LoginResult carries the opaque session token and a short-lived bearer
// token bound to the same session.
type LoginResult struct {
	Session              *models.Session
	SessionToken         string
	AccessToken          string
	AccessTokenExpiresAt time.Time
	ExpiresAt            time.Time
	Principal            *models.Principal
}

// authenticated is the outcome of a credential check before a session exists.
type authenticated struct {
	kind      models.SubjectKind
	subjectID id.SubjectID
	tenantID  *id.TenantID
}

// Login checks password credentials and opens a session. Every lookup is
// scoped to the named tenant; an email is never searched across tenants.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveLoginDuration(float64(time.Since(start).Milliseconds()))
	}()

	req.Email = models.NormalizeEmail(req.Email)
	req.TenantSlug = strings.ToLower(strings.TrimSpace(req.TenantSlug))
	if err := validateLogin(req); err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(ratelimit.Key(string(req.Kind), req.TenantSlug, req.Email)) {
		s.metrics.IncrementLoginThrottled()
		s.loginFailed(ctx, req, "rate_limited")
		return nil, dErrors.New(dErrors.CodeRateLimited, "too many login attempts, try again later")
	}

	var (
		who *authenticated
		err error
	)
	switch req.Kind {
	case models.SubjectTenantUser:
		who, err = s.authenticateTenantUser(ctx, req)
	case models.SubjectCustomer:
		who, err = s.authenticateCustomer(ctx, req)
	case models.SubjectSuperAdmin:
		who, err = s.authenticateSuperAdmin(ctx, req)
	}
	if err != nil {
		s.loginFailed(ctx, req, loginFailureReason(err))
		return nil, err
	}

	result, err := s.openSession(ctx, who, req.UserAgent)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementLogin(string(req.Kind), "succeeded")
	s.emit(ctx, sessionEvent(audit.ActionLoginSucceeded, result.Session))
	return result, nil
}

func validateLogin(req LoginRequest) error {
	switch req.Kind {
	case models.SubjectTenantUser, models.SubjectCustomer:
		if req.TenantSlug == "" {
			return dErrors.New(dErrors.CodeValidation, "tenant_slug is required")
		}
	case models.SubjectSuperAdmin:
		if req.TenantSlug != "" {
			return dErrors.New(dErrors.CodeValidation, "tenant_slug must be empty for super admin login")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "kind must be tenant_user, customer or super_admin")
	}
	if req.Email == "" || req.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

func (s *Service) authenticateTenantUser(ctx context.Context, req LoginRequest) (*authenticated, error) {
	tenant, err := s.loginTenant(ctx, req)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, tenant.ID, req.Email)
	if err != nil {
		return nil, s.unknownAccount(req, err)
	}
	if !secrets.VerifyPassword(req.Password, user.PasswordHash) || !user.Active {
		return nil, invalidCredentials()
	}
	if !tenant.IsActive() {
		return nil, tenantInactive()
	}
	return &authenticated{
		kind:      models.SubjectTenantUser,
		subjectID: id.SubjectID(user.ID),
		tenantID:  id.TenantRef(tenant.ID),
	}, nil
}

func (s *Service) authenticateCustomer(ctx context.Context, req LoginRequest) (*authenticated, error) {
	tenant, err := s.loginTenant(ctx, req)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByEmail(ctx, tenant.ID, req.Email)
	if err != nil {
		return nil, s.unknownAccount(req, err)
	}
	if !secrets.VerifyPassword(req.Password, customer.PasswordHash) || !customer.Active {
		return nil, invalidCredentials()
	}
	if !tenant.IsActive() {
		return nil, tenantInactive()
	}
	return &authenticated{
		kind:      models.SubjectCustomer,
		subjectID: id.SubjectID(customer.ID),
		tenantID:  id.TenantRef(tenant.ID),
	}, nil
}

func (s *Service) authenticateSuperAdmin(ctx context.Context, req LoginRequest) (*authenticated, error) {
	admin, err := s.superAdmins.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, s.unknownAccount(req, err)
	}
	if !secrets.VerifyPassword(req.Password, admin.PasswordHash) || !admin.Active {
		return nil, invalidCredentials()
	}
	return &authenticated{kind: models.SubjectSuperAdmin, subjectID: id.SubjectID(admin.ID)}, nil
}

// loginTenant resolves the slug. An unknown tenant looks exactly like a
// wrong password, including the bcrypt work.
func (s *Service) loginTenant(ctx context.Context, req LoginRequest) (*tenantModels.Tenant, error) {
	tenant, err := s.tenants.FindBySlug(ctx, req.TenantSlug)
	if err != nil {
		return nil, s.unknownAccount(req, err)
	}
	return tenant, nil
}

func (s *Service) unknownAccount(req LoginRequest, err error) error {
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	secrets.DummyVerify(req.Password)
	return invalidCredentials()
}

// LoginFederated signs a platform user in with a verified identity-provider
// token, creating the account on first sight.
func (s *Service) LoginFederated(ctx context.Context, req FederatedLoginRequest) (*LoginResult, error) {
	if s.federated == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "federated login is not configured")
	}
	identity, err := s.federated.Verify(ctx, req.IDToken)
	if err != nil {
		s.loginFailed(ctx, LoginRequest{Kind: models.SubjectPlatformUser}, "invalid_identity_token")
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidCredentials, "invalid credentials")
	}
	if req.Provider != "" && req.Provider != identity.Provider {
		s.loginFailed(ctx, LoginRequest{Kind: models.SubjectPlatformUser}, "provider_mismatch")
		return nil, invalidCredentials()
	}

	user, err := s.findOrCreatePlatformUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		s.loginFailed(ctx, LoginRequest{Kind: models.SubjectPlatformUser, Email: user.Email}, "invalid_credentials")
		return nil, invalidCredentials()
	}
	if user.TenantID != nil {
		tenant, err := s.tenants.FindByID(ctx, *user.TenantID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
		}
		if err != nil || !tenant.IsActive() {
			s.loginFailed(ctx, LoginRequest{Kind: models.SubjectPlatformUser, Email: user.Email}, dErrors.ReasonTenantInactive)
			return nil, tenantInactive()
		}
	}

	result, err := s.openSession(ctx, &authenticated{
		kind:      models.SubjectPlatformUser,
		subjectID: id.SubjectID(user.ID),
		tenantID:  user.TenantID,
	}, req.UserAgent)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementLogin(string(models.SubjectPlatformUser), "succeeded")
	s.emit(ctx, sessionEvent(audit.ActionLoginSucceeded, result.Session))
	return result, nil
}

func (s *Service) findOrCreatePlatformUser(ctx context.Context, identity *FederatedIdentity) (*models.PlatformUser, error) {
	user, err := s.platformUsers.FindByProviderSubject(ctx, identity.Provider, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load platform user")
	}

	user = &models.PlatformUser{
		ID:              id.PlatformUserID(uuid.New()),
		Provider:        identity.Provider,
		ProviderSubject: identity.Subject,
		Email:           identity.Email,
		Roles:           []models.Role{models.RolePlatformUser},
		Active:          true,
		CreatedAt:       requestcontext.Now(ctx),
	}
	if err := s.platformUsers.Create(ctx, user); err != nil {
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create platform user")
		}
		// lost a first-login race; the winner's row is the account
		existing, findErr := s.platformUsers.FindByProviderSubject(ctx, identity.Provider, identity.Subject)
		if findErr != nil {
			return nil, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to load platform user")
		}
		return existing, nil
	}
	s.logger.InfoContext(ctx, "platform user created",
		"platform_user_id", user.ID.String(),
		"provider", user.Provider,
		"request_id", requestcontext.RequestID(ctx),
	)
	return user, nil
}

// openSession persists a new session and issues both tokens. The principal
// is loaded the same way the resolver would, so roles in the bearer token
// reflect the stored account.
func (s *Service) openSession(ctx context.Context, who *authenticated, userAgent string) (*LoginResult, error) {
	principal, err := s.loadSubject(ctx, who.kind, who.subjectID, who.tenantID)
	if err != nil {
		return nil, err
	}

	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}
	if userAgent == "" {
		userAgent = requestcontext.UserAgent(ctx)
	}
	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:                id.SessionID(uuid.New()),
		TokenHash:         secrets.HashToken(token),
		SubjectID:         who.subjectID,
		SubjectKind:       who.kind,
		TenantID:          who.tenantID,
		DeviceDisplayName: device.DisplayName(userAgent),
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	s.metrics.IncrementActiveSessions(1)

	return s.issue(ctx, session, token, principal)
}

func (s *Service) issue(ctx context.Context, session *models.Session, token string, principal *models.Principal) (*LoginResult, error) {
	accessToken, accessExpiresAt, err := s.tokens.Issue(ctx, session, principal.Roles)
	if err != nil {
		return nil, err
	}
	sessionID := session.ID
	principal.SessionID = &sessionID
	principal.IssuedAt = session.CreatedAt
	principal.ExpiresAt = session.ExpiresAt
	return &LoginResult{
		Session:              session,
		SessionToken:         token,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: accessExpiresAt,
		ExpiresAt:            session.ExpiresAt,
		Principal:            principal,
	}, nil
}

func invalidCredentials() error {
	return dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
}

func tenantInactive() error {
	return dErrors.NewDenied(dErrors.CodePermissionDenied, dErrors.ReasonTenantInactive, "tenant is not active")
}

func loginFailureReason(err error) string {
	if reason := dErrors.ReasonOf(err); reason != "" {
		return reason
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return string(de.Code)
	}
	return string(dErrors.CodeInternal)
}
