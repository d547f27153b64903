package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/metrics"
	"tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/tracer"
)

// SessionStore persists sessions.
// Error Contract: Find methods return sentinel.ErrNotFound when nothing matches;
// Rotate returns an error wrapping sentinel.ErrRevoked when the old session is
// no longer active.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	Rotate(ctx context.Context, oldHash string, next *models.Session, now time.Time) (*models.Session, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, bool, error)
	RevokeAllForSubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID, now time.Time) (int, error)
	RevokeAllForTenant(ctx context.Context, tenantID id.TenantID, now time.Time) (int, error)
	ListBySubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID) ([]*models.Session, error)
}

type TenantLookup interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*tenantModels.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*tenantModels.Tenant, error)
}

// UserStore looks tenant users up inside one tenant only.
type UserStore interface {
	FindByID(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*models.TenantUser, error)
	FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.TenantUser, error)
}

type CustomerStore interface {
	FindByID(ctx context.Context, tenantID id.TenantID, customerID id.CustomerID) (*models.Customer, error)
	FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.Customer, error)
}

type PlatformUserStore interface {
	Create(ctx context.Context, u *models.PlatformUser) error
	FindByID(ctx context.Context, userID id.PlatformUserID) (*models.PlatformUser, error)
	FindByProviderSubject(ctx context.Context, provider, subject string) (*models.PlatformUser, error)
}

type SuperAdminStore interface {
	FindByID(ctx context.Context, adminID id.AdminID) (*models.SuperAdmin, error)
	FindByEmail(ctx context.Context, email string) (*models.SuperAdmin, error)
}

// PermissionCatalog expands roles into capabilities.
type PermissionCatalog interface {
	Permissions(roles []models.Role, explicit []string) map[string]struct{}
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LoginLimiter decides whether another login attempt for key may proceed.
type LoginLimiter interface {
	Allow(key string) bool
}

// Stores groups the persistence the service reads and writes.
type Stores struct {
	Sessions      SessionStore
	Tenants       TenantLookup
	Users         UserStore
	Customers     CustomerStore
	PlatformUsers PlatformUserStore
	SuperAdmins   SuperAdminStore
}

func (s Stores) validate() error {
	if s.Sessions == nil || s.Tenants == nil || s.Users == nil ||
		s.Customers == nil || s.PlatformUsers == nil || s.SuperAdmins == nil {
		return errors.New("all auth stores are required")
	}
	return nil
}

const defaultSessionTTL = 24 * time.Hour

// Service resolves principals and runs the session lifecycle: login,
// refresh, logout and bulk revocation.
type Service struct {
	sessions      SessionStore
	tenants       TenantLookup
	users         UserStore
	customers     CustomerStore
	platformUsers PlatformUserStore
	superAdmins   SuperAdminStore

	catalog   PermissionCatalog
	tokens    *TokenIssuer
	federated FederatedVerifier
	limiter   LoginLimiter

	sessionTTL   time.Duration
	environment  string
	devOverrides map[string]string

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithSessionTTL configures the session lifetime. Non-positive values keep the default.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithFederatedVerifier(v FederatedVerifier) Option {
	return func(s *Service) {
		s.federated = v
	}
}

func WithLoginLimiter(l LoginLimiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithDevOverrides enables the X-Dev-Override credential. The overrides only
// take effect when environment is "development".
func WithDevOverrides(environment string, overrides map[string]string) Option {
	return func(s *Service) {
		s.environment = environment
		s.devOverrides = overrides
	}
}

func New(stores Stores, catalog PermissionCatalog, tokens *TokenIssuer, opts ...Option) (*Service, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if catalog == nil || tokens == nil {
		return nil, errors.New("permission catalog and token issuer are required")
	}
	svc := &Service{
		sessions:      stores.Sessions,
		tenants:       stores.Tenants,
		users:         stores.Users,
		customers:     stores.Customers,
		platformUsers: stores.PlatformUsers,
		superAdmins:   stores.SuperAdmins,
		catalog:       catalog,
		tokens:        tokens,
		sessionTTL:    defaultSessionTTL,
		tracer:        tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}
