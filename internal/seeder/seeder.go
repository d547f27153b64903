// Package seeder bootstraps the first super admin and, in development, a
// demo data set of plans, tenants and accounts.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
	"tenantgate/pkg/secrets"
)

type PlanStore interface {
	Create(ctx context.Context, p *tenantModels.Plan) error
	FindBySlug(ctx context.Context, slug string) (*tenantModels.Plan, error)
}

type TenantStore interface {
	Create(ctx context.Context, t *tenantModels.Tenant) error
}

// UsageStore keeps the max_users counter in step with seeded users.
type UsageStore interface {
	Reserve(ctx context.Context, tenantID id.TenantID, limit tenantModels.LimitKey, period string, delta, ceiling int64) (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, u *models.TenantUser) error
}

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
}

type SuperAdminStore interface {
	Create(ctx context.Context, a *models.SuperAdmin) error
	FindByEmail(ctx context.Context, email string) (*models.SuperAdmin, error)
}

type Stores struct {
	Plans       PlanStore
	Tenants     TenantStore
	Usage       UsageStore
	Users       UserStore
	Customers   CustomerStore
	SuperAdmins SuperAdminStore
}

// Seeder writes bootstrap and demo records straight to the stores, outside
// the authorization gate.
type Seeder struct {
	stores Stores
	tx     tx.Runner
	logger *slog.Logger
	now    func() time.Time
}

func New(stores Stores, runner tx.Runner, logger *slog.Logger) (*Seeder, error) {
	if stores.Plans == nil || stores.Tenants == nil || stores.Usage == nil ||
		stores.Users == nil || stores.Customers == nil || stores.SuperAdmins == nil {
		return nil, errors.New("all seeder stores are required")
	}
	if runner == nil {
		runner = tx.NewMemoryRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{stores: stores, tx: runner, logger: logger, now: time.Now}, nil
}

// EnsureSuperAdmin creates a super admin with email unless one exists.
// Reports whether an account was created.
func (s *Seeder) EnsureSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return false, errors.New("super admin email is required")
	}
	_, err := s.stores.SuperAdmins.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return false, fmt.Errorf("find super admin: %w", err)
	}

	hash, err := secrets.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.SuperAdmin{
		ID:           id.AdminID(uuid.New()),
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.stores.SuperAdmins.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("create super admin: %w", err)
	}
	s.logger.InfoContext(ctx, "super admin bootstrapped", "email", email)
	return true, nil
}

type demoPlan struct {
	slug     string
	name     string
	limits   map[tenantModels.LimitKey]int64
	features map[tenantModels.Feature]bool
}

var demoPlans = []demoPlan{
	{
		slug: "starter",
		name: "Starter",
		limits: map[tenantModels.LimitKey]int64{
			tenantModels.LimitMaxUsers:            5,
			tenantModels.LimitMaxVenues:           2,
			tenantModels.LimitMaxBookingsPerMonth: 20,
		},
	},
	{
		slug: "pro",
		name: "Pro",
		limits: map[tenantModels.LimitKey]int64{
			tenantModels.LimitMaxUsers:            25,
			tenantModels.LimitMaxVenues:           10,
			tenantModels.LimitMaxBookingsPerMonth: 500,
		},
		features: map[tenantModels.Feature]bool{
			tenantModels.FeatureVoiceBooking: true,
			tenantModels.FeatureProposals:    true,
			tenantModels.FeatureESignature:   true,
			tenantModels.FeaturePayments:     true,
		},
	},
	{
		slug: "enterprise",
		name: "Enterprise",
		limits: map[tenantModels.LimitKey]int64{
			tenantModels.LimitMaxUsers:            tenantModels.Unlimited,
			tenantModels.LimitMaxVenues:           tenantModels.Unlimited,
			tenantModels.LimitMaxBookingsPerMonth: tenantModels.Unlimited,
		},
		features: map[tenantModels.Feature]bool{
			tenantModels.FeatureVoiceBooking: true,
			tenantModels.FeatureAIAnalytics:  true,
			tenantModels.FeatureProposals:    true,
			tenantModels.FeatureESignature:   true,
			tenantModels.FeaturePayments:     true,
		},
	},
}

type demoTenant struct {
	slug string
	name string
	plan string
}

var demoTenants = []demoTenant{
	{slug: "acme", name: "Acme Events", plan: "starter"},
	{slug: "globex", name: "Globex Venues", plan: "pro"},
}

var demoStaff = []struct {
	local string
	name  string
	role  models.Role
}{
	{local: "admin", name: "Tenant Admin", role: models.RoleTenantAdmin},
	{local: "manager", name: "Venue Manager", role: models.RoleTenantManager},
	{local: "staff", name: "Front Desk", role: models.RoleTenantStaff},
}

// DemoResult summarizes what SeedDemo created.
type DemoResult struct {
	Skipped   bool
	Plans     int
	Tenants   map[string]id.TenantID
	Users     int
	Customers int
}

// SeedDemo creates three plans, two active tenants, and one admin, manager,
// staff member and customer per tenant, all sharing password. Emails are
// <role>@<slug>.test. It does nothing when the starter plan already exists.
func (s *Seeder) SeedDemo(ctx context.Context, password string) (*DemoResult, error) {
	if _, err := s.stores.Plans.FindBySlug(ctx, demoPlans[0].slug); err == nil {
		s.logger.InfoContext(ctx, "demo data already present, skipping")
		return &DemoResult{Skipped: true}, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find plan: %w", err)
	}

	hash, err := secrets.HashPassword(password)
	if err != nil {
		return nil, err
	}

	res := &DemoResult{Tenants: make(map[string]id.TenantID, len(demoTenants))}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := s.now().UTC()
		plans := make(map[string]id.PlanID, len(demoPlans))
		for _, dp := range demoPlans {
			plan, err := tenantModels.NewPlan(id.PlanID(uuid.New()), dp.slug, dp.name, dp.limits, dp.features, now)
			if err != nil {
				return err
			}
			if err := s.stores.Plans.Create(ctx, plan); err != nil {
				return fmt.Errorf("create plan %s: %w", dp.slug, err)
			}
			plans[dp.slug] = plan.ID
			res.Plans++
		}

		for _, dt := range demoTenants {
			tenant, err := tenantModels.NewTenant(id.TenantID(uuid.New()), dt.name, dt.slug, plans[dt.plan], now)
			if err != nil {
				return err
			}
			if err := tenant.Activate(now); err != nil {
				return err
			}
			if err := s.stores.Tenants.Create(ctx, tenant); err != nil {
				return fmt.Errorf("create tenant %s: %w", dt.slug, err)
			}
			res.Tenants[dt.slug] = tenant.ID

			users, err := s.seedAccounts(ctx, tenant, hash, now)
			if err != nil {
				return err
			}
			res.Users += users
			res.Customers++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed demo data: %w", err)
	}

	s.logger.InfoContext(ctx, "demo data seeded",
		"plans", res.Plans,
		"tenants", len(res.Tenants),
		"users", res.Users,
		"customers", res.Customers,
	)
	return res, nil
}

func (s *Seeder) seedAccounts(ctx context.Context, tenant *tenantModels.Tenant, hash string, now time.Time) (int, error) {
	for _, st := range demoStaff {
		u := &models.TenantUser{
			ID:           id.UserID(uuid.New()),
			TenantID:     tenant.ID,
			Email:        st.local + "@" + tenant.Slug + ".test",
			Name:         st.name,
			PasswordHash: hash,
			Roles:        []models.Role{st.role},
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.stores.Users.Create(ctx, u); err != nil {
			return 0, fmt.Errorf("create user %s: %w", u.Email, err)
		}
	}
	if _, err := s.stores.Usage.Reserve(ctx, tenant.ID, tenantModels.LimitMaxUsers,
		tenantModels.LimitMaxUsers.Period(now), int64(len(demoStaff)), tenantModels.Unlimited); err != nil {
		return 0, fmt.Errorf("record user usage: %w", err)
	}

	customer := &models.Customer{
		ID:           id.CustomerID(uuid.New()),
		TenantID:     tenant.ID,
		Email:        "customer@" + tenant.Slug + ".test",
		Name:         "Demo Customer",
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
	}
	if err := s.stores.Customers.Create(ctx, customer); err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}
	return len(demoStaff), nil
}
