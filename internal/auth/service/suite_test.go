package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SessionStore,TenantLookup,UserStore,AuditPublisher

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/models"
	customerStore "tenantgate/internal/auth/store/customer"
	platformUserStore "tenantgate/internal/auth/store/platformuser"
	sessionStore "tenantgate/internal/auth/store/session"
	superAdminStore "tenantgate/internal/auth/store/superadmin"
	userStore "tenantgate/internal/auth/store/user"
	"tenantgate/internal/authz"
	"tenantgate/internal/platform/config"
	tenantModels "tenantgate/internal/tenant/models"
	tenantStore "tenantgate/internal/tenant/store/tenant"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

const testPassword = "correct horse battery staple"

// passwordHash is computed once; bcrypt is slow on purpose.
var passwordHash = func() string {
	h, err := secrets.HashPassword(testPassword)
	if err != nil {
		panic(err)
	}
	return h
}()

// ServiceSuite runs the auth service against the in-memory stores.
type ServiceSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time

	sessions      *sessionStore.InMemory
	tenants       *tenantStore.InMemory
	users         *userStore.InMemory
	customers     *customerStore.InMemory
	platformUsers *platformUserStore.InMemory
	superAdmins   *superAdminStore.InMemory
	auditSink     *audit.MemorySink

	tokens  *TokenIssuer
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.sessions = sessionStore.NewInMemory()
	s.tenants = tenantStore.NewInMemory()
	s.users = userStore.NewInMemory()
	s.customers = customerStore.NewInMemory()
	s.platformUsers = platformUserStore.NewInMemory()
	s.superAdmins = superAdminStore.NewInMemory()
	s.auditSink = audit.NewMemorySink()
	s.tokens = NewTokenIssuer("test-signing-key-of-sufficient-length", "tenantgate", "tenantgate-api", 15*time.Minute)
	s.service = s.newService()
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(audit.NewPublisher([]audit.Sink{s.auditSink})),
		WithSessionTTL(time.Hour),
		WithDevOverrides(config.EnvDevelopment, map[string]string{
			"dev-admin":   "tenant_admin@acme",
			"dev-root":    "super_admin",
			"dev-orphan":  "tenant_staff",
			"dev-ghost":   "tenant_staff@nowhere",
			"dev-unknown": "wizard@acme",
		}),
	}
	svc, err := New(Stores{
		Sessions:      s.sessions,
		Tenants:       s.tenants,
		Users:         s.users,
		Customers:     s.customers,
		PlatformUsers: s.platformUsers,
		SuperAdmins:   s.superAdmins,
	}, authz.MustRoleCatalog(), s.tokens, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

// at returns a context pinned to now plus d.
func (s *ServiceSuite) at(d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(d))
}

func (s *ServiceSuite) newTenant(slug string, status tenantModels.TenantStatus) *tenantModels.Tenant {
	t, err := tenantModels.NewTenant(id.TenantID(uuid.New()), slug+" inc", slug, id.PlanID(uuid.New()), s.now)
	s.Require().NoError(err)
	t.Status = status
	s.Require().NoError(s.tenants.Create(s.ctx, t))
	return t
}

func (s *ServiceSuite) newUser(tenant *tenantModels.Tenant, email string, roles ...models.Role) *models.TenantUser {
	u := &models.TenantUser{
		ID:           id.UserID(uuid.New()),
		TenantID:     tenant.ID,
		Email:        models.NormalizeEmail(email),
		Name:         "Test User",
		PasswordHash: passwordHash,
		Roles:        roles,
		Active:       true,
		CreatedAt:    s.now,
		UpdatedAt:    s.now,
	}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *ServiceSuite) newCustomer(tenant *tenantModels.Tenant, email string) *models.Customer {
	c := &models.Customer{
		ID:           id.CustomerID(uuid.New()),
		TenantID:     tenant.ID,
		Email:        models.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    s.now,
	}
	s.Require().NoError(s.customers.Create(s.ctx, c))
	return c
}

func (s *ServiceSuite) newSuperAdmin(email string) *models.SuperAdmin {
	a := &models.SuperAdmin{
		ID:           id.AdminID(uuid.New()),
		Email:        models.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    s.now,
	}
	s.Require().NoError(s.superAdmins.Create(s.ctx, a))
	return a
}

func (s *ServiceSuite) loginUser(tenant *tenantModels.Tenant, email string) *LoginResult {
	res, err := s.service.Login(s.ctx, LoginRequest{
		Kind:       models.SubjectTenantUser,
		TenantSlug: tenant.Slug,
		Email:      email,
		Password:   testPassword,
	})
	s.Require().NoError(err)
	return res
}

func sessionCreds(token string) models.Credentials {
	return models.Credentials{Kind: models.CredentialSession, Token: token}
}

func bearerCreds(token string) models.Credentials {
	return models.Credentials{Kind: models.CredentialBearer, Token: token}
}
