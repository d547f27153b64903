package main

import (
	"context"
	"database/sql"
	"fmt"

	authModels "tenantgate/internal/auth/models"
	authService "tenantgate/internal/auth/service"
	customerStore "tenantgate/internal/auth/store/customer"
	platformUserStore "tenantgate/internal/auth/store/platformuser"
	sessionStore "tenantgate/internal/auth/store/session"
	superAdminStore "tenantgate/internal/auth/store/superadmin"
	userStore "tenantgate/internal/auth/store/user"
	"tenantgate/internal/auth/workers/cleanup"
	"tenantgate/internal/authz"
	"tenantgate/internal/platform/config"
	"tenantgate/internal/platform/redis"
	tenantService "tenantgate/internal/tenant/service"
	planStore "tenantgate/internal/tenant/store/plan"
	tenantStore "tenantgate/internal/tenant/store/tenant"
	usageStore "tenantgate/internal/tenant/store/usage"
	venueService "tenantgate/internal/venue/service"
	bookingStore "tenantgate/internal/venue/store/booking"
	venueStore "tenantgate/internal/venue/store/venue"
	"tenantgate/pkg/platform/tx"
)

// The composition root needs each store under every contract that consumes
// it. Memory and Postgres implementations share these method sets.

type usageCounter interface {
	authz.UsageCounter
	tenantService.UsageStore
}

type tenantUserStore interface {
	tenantService.UserStore
	authService.UserStore
}

type customerAccountStore interface {
	authService.CustomerStore
	tenantService.TenantScoped
	Create(ctx context.Context, c *authModels.Customer) error
}

type platformAccountStore interface {
	authService.PlatformUserStore
	tenantService.PlatformUserStore
}

type superAdminAccountStore interface {
	authService.SuperAdminStore
	Create(ctx context.Context, a *authModels.SuperAdmin) error
}

type sessionBackend interface {
	authService.SessionStore
	cleanup.SessionStore
}

type venueBackend interface {
	venueService.VenueStore
	tenantService.TenantScoped
}

type bookingBackend interface {
	venueService.BookingStore
	tenantService.TenantScoped
}

type storeSet struct {
	runner        tx.Runner
	tenants       tenantService.TenantStore
	plans         tenantService.PlanStore
	usage         usageCounter
	users         tenantUserStore
	customers     customerAccountStore
	platformUsers platformAccountStore
	superAdmins   superAdminAccountStore
	venues        venueBackend
	bookings      bookingBackend
}

func newMemoryStores() *storeSet {
	return &storeSet{
		runner:        tx.NewMemoryRunner(),
		tenants:       tenantStore.NewInMemory(),
		plans:         planStore.NewInMemory(),
		usage:         usageStore.NewInMemory(),
		users:         userStore.NewInMemory(),
		customers:     customerStore.NewInMemory(),
		platformUsers: platformUserStore.NewInMemory(),
		superAdmins:   superAdminStore.NewInMemory(),
		venues:        venueStore.NewInMemory(),
		bookings:      bookingStore.NewInMemory(),
	}
}

func newPostgresStores(db *sql.DB) *storeSet {
	return &storeSet{
		runner:        tx.NewSQLRunner(db),
		tenants:       tenantStore.NewPostgres(db),
		plans:         planStore.NewPostgres(db),
		usage:         usageStore.NewPostgres(db),
		users:         userStore.NewPostgres(db),
		customers:     customerStore.NewPostgres(db),
		platformUsers: platformUserStore.NewPostgres(db),
		superAdmins:   superAdminStore.NewPostgres(db),
		venues:        venueStore.NewPostgres(db),
		bookings:      bookingStore.NewPostgres(db),
	}
}

func newSessionStore(cfg *config.Server, db *sql.DB, redisClient *redis.Client) (sessionBackend, error) {
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		if db == nil {
			return nil, fmt.Errorf("session store postgres needs DATABASE_URL")
		}
		return sessionStore.NewPostgres(db), nil
	case config.SessionStoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("session store redis needs REDIS_URL")
		}
		return sessionStore.NewRedis(redisClient.Client), nil
	default:
		return sessionStore.NewInMemory(), nil
	}
}
