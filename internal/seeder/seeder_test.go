package seeder

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/auth/models"
	customerStore "tenantgate/internal/auth/store/customer"
	superAdminStore "tenantgate/internal/auth/store/superadmin"
	userStore "tenantgate/internal/auth/store/user"
	tenantModels "tenantgate/internal/tenant/models"
	planStore "tenantgate/internal/tenant/store/plan"
	tenantStore "tenantgate/internal/tenant/store/tenant"
	usageStore "tenantgate/internal/tenant/store/usage"
	"tenantgate/pkg/platform/tx"
	"tenantgate/pkg/secrets"
)

type SeederSuite struct {
	suite.Suite
	ctx       context.Context
	plans     *planStore.InMemory
	tenants   *tenantStore.InMemory
	usage     *usageStore.InMemory
	users     *userStore.InMemory
	customers *customerStore.InMemory
	admins    *superAdminStore.InMemory
	seeder    *Seeder
}

func TestSeederSuite(t *testing.T) {
	suite.Run(t, new(SeederSuite))
}

func (s *SeederSuite) SetupTest() {
	s.ctx = context.Background()
	s.plans = planStore.NewInMemory()
	s.tenants = tenantStore.NewInMemory()
	s.usage = usageStore.NewInMemory()
	s.users = userStore.NewInMemory()
	s.customers = customerStore.NewInMemory()
	s.admins = superAdminStore.NewInMemory()

	seeder, err := New(Stores{
		Plans:       s.plans,
		Tenants:     s.tenants,
		Usage:       s.usage,
		Users:       s.users,
		Customers:   s.customers,
		SuperAdmins: s.admins,
	}, tx.NewMemoryRunner(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.Require().NoError(err)
	s.seeder = seeder
}

func (s *SeederSuite) TestEnsureSuperAdminIsIdempotent() {
	created, err := s.seeder.EnsureSuperAdmin(s.ctx, "  Root@Example.COM ", "correct horse")
	s.Require().NoError(err)
	s.True(created)

	created, err = s.seeder.EnsureSuperAdmin(s.ctx, "root@example.com", "other password")
	s.Require().NoError(err)
	s.False(created)

	admin, err := s.admins.FindByEmail(s.ctx, "root@example.com")
	s.Require().NoError(err)
	s.True(admin.Active)
	s.True(secrets.VerifyPassword("correct horse", admin.PasswordHash))
}

func (s *SeederSuite) TestEnsureSuperAdminRequiresEmail() {
	_, err := s.seeder.EnsureSuperAdmin(s.ctx, " ", "pw")
	s.Error(err)
}

func (s *SeederSuite) TestSeedDemo() {
	res, err := s.seeder.SeedDemo(s.ctx, "demo-password")
	s.Require().NoError(err)
	s.False(res.Skipped)
	s.Equal(3, res.Plans)
	s.Equal(6, res.Users)
	s.Equal(2, res.Customers)
	s.Require().Contains(res.Tenants, "acme")

	acme, err := s.tenants.FindBySlug(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal(tenantModels.TenantStatusActive, acme.Status)

	admin, err := s.users.FindByEmail(s.ctx, acme.ID, "admin@acme.test")
	s.Require().NoError(err)
	s.Equal([]models.Role{models.RoleTenantAdmin}, admin.Roles)
	s.True(secrets.VerifyPassword("demo-password", admin.PasswordHash))

	_, err = s.users.FindByEmail(s.ctx, acme.ID, "admin@globex.test")
	s.Error(err, "accounts stay inside their tenant")

	used, err := s.usage.Get(s.ctx, acme.ID, tenantModels.LimitMaxUsers, tenantModels.LimitMaxUsers.Period(acme.CreatedAt))
	s.Require().NoError(err)
	s.Equal(int64(3), used)

	pro, err := s.plans.FindBySlug(s.ctx, "pro")
	s.Require().NoError(err)
	s.True(pro.HasFeature(tenantModels.FeatureVoiceBooking))
}

func (s *SeederSuite) TestSeedDemoSkipsWhenPresent() {
	_, err := s.seeder.SeedDemo(s.ctx, "demo-password")
	s.Require().NoError(err)

	res, err := s.seeder.SeedDemo(s.ctx, "demo-password")
	s.Require().NoError(err)
	s.True(res.Skipped)

	tenants, err := s.tenants.List(s.ctx)
	s.Require().NoError(err)
	s.Len(tenants, 2)
}

func TestNewRequiresStores(t *testing.T) {
	_, err := New(Stores{}, nil, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "stores are required")
}
