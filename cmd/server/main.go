package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	authHandler "tenantgate/internal/auth/handler"
	authMetrics "tenantgate/internal/auth/metrics"
	"tenantgate/internal/auth/ratelimit"
	authService "tenantgate/internal/auth/service"
	"tenantgate/internal/auth/workers/cleanup"
	"tenantgate/internal/authz"
	"tenantgate/internal/platform/config"
	"tenantgate/internal/platform/database"
	"tenantgate/internal/platform/health"
	"tenantgate/internal/platform/logger"
	"tenantgate/internal/platform/redis"
	"tenantgate/internal/seeder"
	tenantHandler "tenantgate/internal/tenant/handler"
	tenantMetrics "tenantgate/internal/tenant/metrics"
	tenantService "tenantgate/internal/tenant/service"
	httptransport "tenantgate/internal/transport/http"
	venueHandler "tenantgate/internal/venue/handler"
	venueMetrics "tenantgate/internal/venue/metrics"
	venueService "tenantgate/internal/venue/service"
	"tenantgate/pkg/platform/middleware/request"
	"tenantgate/pkg/platform/tracer"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tenantgate:", err)
		os.Exit(1)
	}
}

// run wires dependencies, serves HTTP and runs the background workers until
// SIGINT or SIGTERM. Business logic lives in the internal service packages.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	log.Info("initializing tenantgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"session_store", cfg.SessionStore,
	)

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // process is exiting

	var db *sql.DB
	stores := newMemoryStores()
	if pool != nil {
		db = pool.DB()
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
		}
		stores = newPostgresStores(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // process is exiting
	}

	healthHandler := health.New(cfg.Environment)
	sessions, err := newSessionStore(cfg, db, redisClient)
	if err != nil {
		return err
	}
	if pool != nil {
		healthHandler.RegisterCheck("postgres", pool.Health)
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}

	auditing, err := newAuditPipeline(cfg.Audit, log, db)
	if err != nil {
		return err
	}
	if auditing.producer != nil {
		healthHandler.RegisterCheck("kafka", auditing.producer.Health)
	}

	catalog, err := authz.NewRoleCatalog()
	if err != nil {
		return fmt.Errorf("load role catalog: %w", err)
	}
	tr := tracer.NewOTel("tenantgate")
	authzMetrics := authz.NewMetrics()

	gate := authz.NewGate(tenantService.NewPlanLookup(stores.tenants, stores.plans), stores.usage,
		authz.WithGateLogger(log),
		authz.WithGateMetrics(authzMetrics),
		authz.WithGateTracer(tr),
		authz.WithGateAudit(auditing.publisher),
	)

	limiter := ratelimit.New(cfg.Auth.LoginRatePerMin, cfg.Auth.LoginBurst)
	sessionMetrics := authMetrics.New()
	authOpts := []authService.Option{
		authService.WithLogger(log),
		authService.WithAuditPublisher(auditing.publisher),
		authService.WithMetrics(sessionMetrics),
		authService.WithTracer(tr),
		authService.WithSessionTTL(cfg.Auth.SessionTTL),
		authService.WithLoginLimiter(limiter),
		authService.WithDevOverrides(cfg.Environment, cfg.Auth.DevOverrides),
	}
	if cfg.Federation.PublicKeyPEM != "" {
		verifier, err := authService.NewRS256Verifier(cfg.Federation.Provider, cfg.Federation.PublicKeyPEM,
			cfg.Federation.Issuer, cfg.Federation.Audience)
		if err != nil {
			return fmt.Errorf("configure federation: %w", err)
		}
		authOpts = append(authOpts, authService.WithFederatedVerifier(verifier))
	}
	authSvc, err := authService.New(authService.Stores{
		Sessions:      sessions,
		Tenants:       stores.tenants,
		Users:         stores.users,
		Customers:     stores.customers,
		PlatformUsers: stores.platformUsers,
		SuperAdmins:   stores.superAdmins,
	}, catalog, authService.NewTokenIssuer(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience, cfg.Auth.AccessTokenTTL), authOpts...)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	tenantSvc, err := tenantService.New(tenantService.Stores{
		Tenants:       stores.tenants,
		Plans:         stores.plans,
		Usage:         stores.usage,
		Users:         stores.users,
		PlatformUsers: stores.platformUsers,
	}, gate, catalog,
		tenantService.WithLogger(log),
		tenantService.WithAuditPublisher(auditing.publisher),
		tenantService.WithMetrics(tenantMetrics.New()),
		tenantService.WithTxRunner(stores.runner),
		tenantService.WithSessionRevoker(authSvc),
		tenantService.WithCascade(stores.bookings, stores.venues, stores.customers),
	)
	if err != nil {
		return fmt.Errorf("create tenant service: %w", err)
	}

	venueSvc, err := venueService.New(stores.venues, stores.bookings, gate,
		venueService.WithLogger(log),
		venueService.WithAuditPublisher(auditing.publisher),
		venueService.WithMetrics(venueMetrics.New()),
		venueService.WithTxRunner(stores.runner),
	)
	if err != nil {
		return fmt.Errorf("create venue service: %w", err)
	}

	if err := seed(ctx, cfg, stores, log); err != nil {
		return err
	}

	sweeper, err := cleanup.New(sessions,
		cleanup.WithCleanupInterval(cfg.Auth.CleanupInterval),
		cleanup.WithRetention(cfg.Auth.SessionRetention),
		cleanup.WithCleanupLogger(log),
		cleanup.WithCleanupMetrics(sessionMetrics),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Health:         healthHandler,
		Auth:           authHandler.New(authSvc, log),
		Resolver:       authSvc,
		Tenants:        tenantHandler.New(tenantSvc, log),
		Venues:         venueHandler.New(venueSvc, log),
		Gate:           gate,
		TxRunner:       stores.runner,
		AuthzMetrics:   authzMetrics,
		RequestMetrics: request.NewMetrics(),
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return untilCancelled(sweeper.Start(gctx)) })
	g.Go(func() error { return untilCancelled(limiter.Start(gctx)) })
	if auditing.relay != nil {
		g.Go(func() error { return untilCancelled(auditing.relay.Start(gctx)) })
	}
	g.Go(func() error {
		ticker := time.NewTicker(poolStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pool.RecordPoolStats()
				if redisClient != nil {
					redisClient.RecordPoolStats()
				}
			case <-gctx.Done():
				return nil
			}
		}
	})

	runErr := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := auditing.Close(closeCtx); err != nil {
		log.Warn("audit pipeline closed with errors", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	log.Info("server stopped")
	return nil
}

func seed(ctx context.Context, cfg *config.Server, stores *storeSet, log *slog.Logger) error {
	if cfg.Bootstrap.AdminEmail == "" && !cfg.SeedDemoData {
		return nil
	}
	s, err := seeder.New(seeder.Stores{
		Plans:       stores.plans,
		Tenants:     stores.tenants,
		Usage:       stores.usage,
		Users:       stores.users,
		Customers:   stores.customers,
		SuperAdmins: stores.superAdmins,
	}, stores.runner, log)
	if err != nil {
		return err
	}
	if cfg.Bootstrap.AdminEmail != "" {
		if _, err := s.EnsureSuperAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap super admin: %w", err)
		}
	}
	if cfg.SeedDemoData {
		if _, err := s.SeedDemo(ctx, cfg.Bootstrap.DemoPassword); err != nil {
			return err
		}
	}
	return nil
}

// untilCancelled treats a worker stopping because the process is shutting
// down as success.
func untilCancelled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
